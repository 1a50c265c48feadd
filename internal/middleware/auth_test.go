package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
)

func authedRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	r := httptest.NewRequest("GET", "/api/logs", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestRequireAuthNoToken(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, ""))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, "garbage"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	expired := auth.NewJWTManager("secret", -time.Minute)
	token, err := expired.GenerateUser("u1", "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	m := auth.NewJWTManager("secret", time.Hour)
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, token))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "Token expired") {
		t.Errorf("body = %q, want token-expired error", body)
	}
}

func TestRequireAuthPopulatesIdentity(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	token, err := m.GenerateUser("u1", "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	called := false
	handler := RequireAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if auth.UserID(r.Context()) != "u1" {
			t.Errorf("UserID = %q, want u1", auth.UserID(r.Context()))
		}
		if auth.Username(r.Context()) != "alice" {
			t.Errorf("Username = %q, want alice", auth.Username(r.Context()))
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, token))

	if !called {
		t.Fatal("expected handler to be reached")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequireAdminRejectsUserToken(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	token, err := m.GenerateUser("u1", "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := RequireAdmin(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, token))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAdminAllowsAdminToken(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	token, err := m.GenerateAdmin()
	if err != nil {
		t.Fatalf("generate admin token: %v", err)
	}

	called := false
	handler := RequireAdmin(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if !auth.IsAdmin(r.Context()) {
			t.Error("expected admin identity in context")
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(t, token))

	if !called {
		t.Fatal("expected handler to be reached")
	}
}
