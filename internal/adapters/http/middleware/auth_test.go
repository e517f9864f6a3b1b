package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// TestSessionStore_Expiry verifies sessions lapse after the TTL.
func TestSessionStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock, time.Hour)

	token, err := store.Create("u1", "coach@example.com", "coach")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	sess, ok := store.Get(token)
	if !ok || sess.UserID != "u1" || sess.Role != "coach" {
		t.Fatalf("Get = %+v, %v", sess, ok)
	}

	clock.Advance(time.Hour + time.Second)
	if _, ok := store.Get(token); ok {
		t.Error("session should have expired")
	}
}

// TestSessionStore_Delete verifies logout invalidates the token.
func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock(), 0)
	if store.TTL() != DefaultSessionTTL {
		t.Errorf("TTL = %v, want default", store.TTL())
	}
	token, _ := store.Create("u1", "a@example.com", "admin")
	store.Delete(token)
	if _, ok := store.Get(token); ok {
		t.Error("deleted session still resolves")
	}
}

// TestAuth_SetsSessionFromCookie verifies the cookie is resolved into context.
func TestAuth_SetsSessionFromCookie(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock(), time.Hour)
	token, _ := store.Create("u1", "a@example.com", "admin")

	var got Session
	var found bool
	handler := Auth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !found || got.Email != "a@example.com" {
		t.Errorf("session = %+v, %v", got, found)
	}

	req = httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if found {
		t.Error("unknown token should not produce a session")
	}
}

// TestSetSessionCookie verifies cookie attributes.
func TestSetSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok", true, time.Hour)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie = %+v", c)
	}
}
