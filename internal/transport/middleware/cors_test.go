package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called for preflight")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/pending", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	CORS("http://localhost:5173")(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != corsMethods {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != corsMaxAge {
		t.Errorf("Access-Control-Max-Age = %q", got)
	}
}

func TestCORS_Origins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{name: "listed", allowed: "https://a.example, https://b.example", origin: "https://b.example", want: "https://b.example"},
		{name: "not listed", allowed: "https://a.example", origin: "https://evil.example", want: ""},
		{name: "wildcard", allowed: "*", origin: "https://any.example", want: "https://any.example"},
		{name: "disabled", allowed: "", origin: "https://a.example", want: ""},
		{name: "no origin header", allowed: "*", origin: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(handler).ServeHTTP(rec, req)

			if !called {
				t.Error("expected handler to be called")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}
