package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/api/v1/sessions", "/api/v1/sessions"},
		{"/api/v1/sessions/abc-123", "/api/v1/sessions/{id}"},
		{"/api/v1/sessions/abc-123/summary", "/api/v1/sessions/{id}/summary"},
		{"/api/v1/sessions/abc/items/def", "/api/v1/sessions/{id}/items/{id}"},
		{"/api/v1/sessions/abc/people/def", "/api/v1/sessions/{id}/people/{id}"},
		{"/api/v1/shared/eyJhbGciOi", "/api/v1/shared/{id}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
