package jwt

import (
	"context"
	"errors"
	"testing"
	"time"
)

const (
	testSecret = "test-secret"
	testIssuer = "microloan-test"
)

func TestVerifier(t *testing.T) {
	t.Parallel()

	valid, err := GenerateAccessToken("Borrower@Example.com", testSecret, testIssuer, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error = %v", err)
	}
	expired, err := GenerateAccessToken("borrower@example.com", testSecret, testIssuer, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error = %v", err)
	}
	otherKey, err := GenerateAccessToken("borrower@example.com", "other-secret", testIssuer, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error = %v", err)
	}
	otherIssuer, err := GenerateAccessToken("borrower@example.com", testSecret, "someone-else", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error = %v", err)
	}

	tests := []struct {
		name      string
		token     string
		wantEmail string
		wantErr   error
	}{
		{name: "valid token lower-cases email", token: valid, wantEmail: "borrower@example.com"},
		{name: "expired", token: expired, wantErr: ErrTokenExpired},
		{name: "wrong key", token: otherKey, wantErr: ErrTokenInvalid},
		{name: "wrong issuer", token: otherIssuer, wantErr: ErrTokenInvalid},
		{name: "garbage", token: "not-a-token", wantErr: ErrTokenInvalid},
	}

	v := NewVerifier(testSecret, testIssuer)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			email, err := v.Verify(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Verify error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify error = %v", err)
			}
			if email != tc.wantEmail {
				t.Fatalf("Verify = %q, want %q", email, tc.wantEmail)
			}
		})
	}
}
