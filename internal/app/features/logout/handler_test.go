package logout_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/provident1031/exchangehub/internal/app/features/logout"
	"github.com/provident1031/exchangehub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *logout.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef",
		"test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return logout.NewHandler(sm, zap.NewNop())
}

func TestServeLogout(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest("POST", "/logout", nil)
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "signed_out") {
		t.Errorf("body: %s", rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("logout should rewrite the session cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cookie max-age: got %d, want negative (delete)", cookies[0].MaxAge)
	}
}

func TestServeLogout_IdempotentWithoutSession(t *testing.T) {
	h := newHandler(t)

	// No cookie at all; still a clean sign-out.
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}
