// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-authored rich text before storage
// and display. Invitation messages and contact notes accept a limited
// HTML vocabulary; everything else is stripped.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Extra inline formatting beyond the UGC baseline
	p.AllowElements("u", "s", "sub", "sup", "mark")

	// Tables, with the attributes our editor emits
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").OnElements("table", "thead", "tbody", "tr", "th", "td")

	return p
}

// Sanitize strips dangerous markup, keeping the allowed subset intact.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether the string contains no HTML tags. A lone
// angle bracket ("5 < 10") does not count as markup.
func IsPlainText(s string) bool {
	lt := strings.IndexByte(s, '<')
	if lt == -1 {
		return true
	}
	return strings.IndexByte(s[lt:], '>') == -1
}

// PlainTextToHTML escapes plain text and converts newlines to <br>,
// wrapping the whole thing in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored text for a template: plain text is
// escaped and paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
