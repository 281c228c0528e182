// internal/domain/capability/capability.go

// Package capability defines the canonical capability set and the
// normalization from every permission shape that has ever been stored
// (legacy token arrays, partial capability documents, nothing at all)
// into one complete per-key boolean set.
//
// Normalization runs at read time, so stored rows never need an eager
// migration. Normalize is a total function over the fixed key set and
// is idempotent: normalizing an already-normalized set is a no-op.
package capability

import (
	"sort"

	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key is one named permission bit.
type Key string

// The fixed capability key set. Every normalized Set has exactly these
// keys, each mapped to a boolean.
const (
	ViewOverview       Key = "can_view_overview"
	ViewMessages       Key = "can_view_messages"
	SendMessages       Key = "can_send_messages"
	ViewTasks          Key = "can_view_tasks"
	CreateTasks        Key = "can_create_tasks"
	EditTasks          Key = "can_edit_tasks"
	DeleteTasks        Key = "can_delete_tasks"
	ViewDocuments      Key = "can_view_documents"
	UploadDocuments    Key = "can_upload_documents"
	EditDocuments      Key = "can_edit_documents"
	DeleteDocuments    Key = "can_delete_documents"
	ViewParticipants   Key = "can_view_participants"
	ManageParticipants Key = "can_manage_participants"
	ViewFinancial      Key = "can_view_financial"
	EditFinancial      Key = "can_edit_financial"
	ViewTimeline       Key = "can_view_timeline"
	EditTimeline       Key = "can_edit_timeline"
	ViewReports        Key = "can_view_reports"
	ViewPerformance    Key = "can_view_performance"
	DeleteExchange     Key = "can_delete_exchange"
)

var allKeys = []Key{
	ViewOverview, ViewMessages, SendMessages,
	ViewTasks, CreateTasks, EditTasks, DeleteTasks,
	ViewDocuments, UploadDocuments, EditDocuments, DeleteDocuments,
	ViewParticipants, ManageParticipants,
	ViewFinancial, EditFinancial,
	ViewTimeline, EditTimeline,
	ViewReports, ViewPerformance,
	DeleteExchange,
}

// Keys returns the full capability key set in stable order.
func Keys() []Key {
	out := make([]Key, len(allKeys))
	copy(out, allKeys)
	return out
}

// Known reports whether k is a recognized capability key.
func Known(k Key) bool {
	for _, key := range allKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Set maps every recognized capability key to a boolean. A Set produced
// by Normalize, Template, or Delegated is always total.
type Set map[Key]bool

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether the key is granted. Missing keys read as false,
// so a partially built set fails closed.
func (s Set) Has(k Key) bool {
	return s[k]
}

// Merge returns the per-key OR of s and other. Two qualifying paths to
// the same exchange never make an identity less capable than either
// path alone.
func (s Set) Merge(other Set) Set {
	out := s.Clone()
	for k, v := range other {
		if v {
			out[k] = true
		}
	}
	return out
}

// SubsetOf reports whether every capability granted by s is also
// granted by other.
func (s Set) SubsetOf(other Set) bool {
	for k, v := range s {
		if v && !other[k] {
			return false
		}
	}
	return true
}

// GrantedKeys returns the granted keys in sorted order. Handy for logs
// and tests.
func (s Set) GrantedKeys() []Key {
	var out []Key
	for k, v := range s {
		if v {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// none returns a total all-false set.
func none() Set {
	out := make(Set, len(allKeys))
	for _, k := range allKeys {
		out[k] = false
	}
	return out
}

// Template returns the role-default capability set. Admin, coordinator,
// and client templates are broad; third_party and agency are view-only
// and narrow. Unknown roles get the all-false set so unrecognized rows
// fail closed.
func Template(role string) Set {
	s := none()
	switch role {
	case models.RoleAdmin:
		for _, k := range allKeys {
			s[k] = true
		}
	case models.RoleCoordinator:
		for _, k := range allKeys {
			s[k] = true
		}
		s[DeleteExchange] = false
	case models.RoleClient:
		s[ViewOverview] = true
		s[ViewMessages] = true
		s[SendMessages] = true
		s[ViewTasks] = true
		s[CreateTasks] = true
		s[ViewDocuments] = true
		s[UploadDocuments] = true
		s[ViewParticipants] = true
		s[ViewFinancial] = true
		s[ViewTimeline] = true
		s[ViewReports] = true
	case models.RoleThirdParty:
		s[ViewOverview] = true
		s[ViewTasks] = true
		s[ViewDocuments] = true
		s[ViewTimeline] = true
	case models.RoleAgency:
		s[ViewOverview] = true
		s[ViewTimeline] = true
		s[ViewReports] = true
		s[ViewPerformance] = true
	}
	return s
}

// Delegated is the reduced profile an agency gets for exchanges reached
// through a third-party assignment rather than a direct invitation.
// It is a strict subset of the agency template regardless of the third
// party's own capabilities, so delegation can never escalate privilege.
// ViewPerformance is granted only when the assignment edge allows it.
func Delegated(canViewPerformance bool) Set {
	s := none()
	s[ViewOverview] = true
	s[ViewTimeline] = true
	s[ViewPerformance] = canViewPerformance
	return s
}

// legacyTokens maps each legacy permission token to the capability keys
// it implied. Tokens of the can_* form are handled directly by
// Normalize, not through this table.
var legacyTokens = map[string][]Key{
	"read":             {ViewOverview, ViewMessages, ViewTasks, ViewDocuments, ViewParticipants},
	"write":            {CreateTasks, EditTasks, UploadDocuments, EditDocuments, EditTimeline},
	"delete":           {DeleteTasks, DeleteDocuments},
	"comment":          {ViewMessages, SendMessages},
	"upload_documents": {ViewDocuments, UploadDocuments},
	"manage":           {ViewParticipants, ManageParticipants},
	"admin":            allKeys,
}

// Normalize converts stored permissions of unknown shape into a total
// Set, defaulted from the role template:
//
//  1. nil → the role template verbatim.
//  2. legacy token array → role template, then each recognized legacy
//     token or can_* token sets its keys true. Tokens never unset a
//     template default.
//  3. capability object → used as-is with missing keys filled from the
//     template; already-true keys are never unset.
//
// Stored values arrive as whatever the driver decoded: primitive.A,
// primitive.M, []string, []any, map[string]bool, map[string]any, or an
// existing Set.
func Normalize(role string, stored any) Set {
	switch v := stored.(type) {
	case nil:
		return Template(role)
	case Set:
		return fillFromTemplate(role, fromKeyMap(v))
	case map[Key]bool:
		return fillFromTemplate(role, fromKeyMap(v))
	case []string:
		return applyTokens(role, v)
	case []any:
		return applyTokens(role, stringify(v))
	case primitive.A:
		return applyTokens(role, stringify(v))
	case map[string]bool:
		m := make(map[string]any, len(v))
		for k, b := range v {
			m[k] = b
		}
		return fillFromTemplate(role, fromAnyMap(m))
	case map[string]any:
		return fillFromTemplate(role, fromAnyMap(v))
	case primitive.M:
		return fillFromTemplate(role, fromAnyMap(v))
	case primitive.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return fillFromTemplate(role, fromAnyMap(m))
	default:
		// Unrecognized shape: fall back to the role defaults rather
		// than guessing at intent.
		return Template(role)
	}
}

func fromKeyMap(in map[Key]bool) Set {
	out := make(Set, len(in))
	for k, v := range in {
		if Known(k) {
			out[k] = v
		}
	}
	return out
}

func fromAnyMap(in map[string]any) Set {
	out := make(Set, len(in))
	for k, v := range in {
		key := Key(k)
		if !Known(key) {
			continue
		}
		if b, ok := v.(bool); ok {
			out[key] = b
		}
	}
	return out
}

// fillFromTemplate completes a partial set from the role template. Keys
// the stored object set (true or false) win; missing keys take the
// template default.
func fillFromTemplate(role string, partial Set) Set {
	out := Template(role)
	for k, v := range partial {
		out[k] = v
	}
	return out
}

func stringify(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// applyTokens starts from the role template and turns keys on for each
// recognized token. Legacy arrays only ever widened access, so tokens
// never turn a template default off.
func applyTokens(role string, tokens []string) Set {
	out := Template(role)
	for _, tok := range tokens {
		if keys, ok := legacyTokens[tok]; ok {
			for _, k := range keys {
				out[k] = true
			}
			continue
		}
		if k := Key(tok); Known(k) {
			out[k] = true
		}
	}
	return out
}
