package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/princekumarofficial/stories-client/internal/utils/jwt"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserIDFromContext(r.Context())
		w.Write([]byte(userID))
	})
}

func TestAuthMiddleware(t *testing.T) {
	token, err := jwt.GenerateToken("u1", "secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := AuthMiddleware("secret")(echoUser())

	tests := []struct {
		name   string
		header string
		query  string
		code   int
		body   string
	}{
		{name: "valid header", header: "Bearer " + token, code: http.StatusOK, body: "u1"},
		{name: "query token", query: "?token=" + token, code: http.StatusOK, body: "u1"},
		{name: "missing", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", code: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", code: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/state"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Fatalf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestStaticViewer(t *testing.T) {
	rec := httptest.NewRecorder()
	StaticViewer("local")(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Body.String() != "local" {
		t.Fatalf("expected static viewer, got %q", rec.Body.String())
	}
}
