package http

import (
	"testing"
	"time"

	"github.com/studysync/studysync-server/internal/auth"
	"github.com/studysync/studysync-server/internal/core"
	"github.com/studysync/studysync-server/internal/store"
	"github.com/studysync/studysync-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// claimsVerifier adapts auth.Service to the hub's token verifier.
type claimsVerifier struct {
	svc *auth.Service
}

func (v *claimsVerifier) VerifyToken(token string) (core.Identity, error) {
	claims, err := v.svc.ValidateToken(token)
	if err != nil {
		return core.Identity{}, err
	}
	return core.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
