package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/attendance-scheduler/internal/application"
)

var (
	testSecret = []byte("test-secret")
	testNow    = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
)

func signTestToken(t *testing.T, viewer application.Viewer, issuer string, expiresAt time.Time) string {
	t.Helper()
	token, err := IssueIdentityToken(testSecret, issuer, viewer, expiresAt)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestIdentityVerifier_Verify(t *testing.T) {
	t.Parallel()

	verifier := NewIdentityVerifier(testSecret, "", func() time.Time { return testNow })

	t.Run("accepts a valid token for user zero", func(t *testing.T) {
		t.Parallel()
		token := signTestToken(t, application.Viewer{UserID: 0, Username: "testuser"}, "", testNow.Add(time.Hour))

		viewer, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if viewer.UserID != 0 || viewer.Username != "testuser" {
			t.Fatalf("unexpected viewer: %#v", viewer)
		}
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		t.Parallel()
		token := signTestToken(t, application.Viewer{UserID: 1, Username: "alice"}, "", testNow.Add(-time.Minute))

		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected ErrInvalidIdentity, got %v", err)
		}
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		t.Parallel()
		token, err := IssueIdentityToken([]byte("other"), "", application.Viewer{UserID: 1, Username: "alice"}, testNow.Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected ErrInvalidIdentity, got %v", err)
		}
	})

	t.Run("rejects tokens without expiry", func(t *testing.T) {
		t.Parallel()
		claims := identityClaims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected ErrInvalidIdentity, got %v", err)
		}
	})

	t.Run("rejects subjects that are not user ids", func(t *testing.T) {
		t.Parallel()
		for _, subject := range []string{"alice", "-1", ""} {
			claims := identityClaims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
			}}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
			if err != nil {
				t.Fatalf("failed to sign token: %v", err)
			}
			if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidIdentity) {
				t.Fatalf("subject %q: expected ErrInvalidIdentity, got %v", subject, err)
			}
		}
	})

	t.Run("checks the issuer when configured", func(t *testing.T) {
		t.Parallel()
		strict := NewIdentityVerifier(testSecret, "idp", func() time.Time { return testNow })
		viewer := application.Viewer{UserID: 2, Username: "bob"}

		if _, err := strict.Verify(context.Background(), signTestToken(t, viewer, "other", testNow.Add(time.Hour))); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected issuer mismatch to fail, got %v", err)
		}
		if _, err := strict.Verify(context.Background(), signTestToken(t, viewer, "idp", testNow.Add(time.Hour))); err != nil {
			t.Fatalf("expected matching issuer to pass, got %v", err)
		}
	})
}
