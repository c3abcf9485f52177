package models

import (
	"errors"
	"testing"
)

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{"valid", ChatRequest{Message: "Hello", UserEmail: "a@example.com"}, false},
		{"empty message", ChatRequest{Message: "", UserEmail: "a@example.com"}, true},
		{"whitespace message", ChatRequest{Message: " \t\n ", UserEmail: "a@example.com"}, true},
		{"missing email", ChatRequest{Message: "Hello", UserEmail: ""}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("Expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected valid request, got %v", err)
			}
		})
	}
}

func TestPersistenceStatusString(t *testing.T) {
	tests := []struct {
		status PersistenceStatus
		want   string
	}{
		{PersistedBoth, "both"},
		{PersistedPartial, "partial"},
		{PersistedNone, "none"},
		{PersistenceStatus(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("PersistenceStatus(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}
