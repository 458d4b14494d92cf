package session

import (
	"path/filepath"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/jwt"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := gojwt.MapClaims{
		"user_id":  "42",
		"username": "alice",
		"exp":      expiresAt.Unix(),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	want := &Session{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  domain.UserSummary{ID: 42, Username: "alice", Role: "student"},
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, int64(42), got.UserID())
	assert.Equal(t, "alice", got.User.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEligible(t *testing.T) {
	s := &Session{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  domain.UserSummary{ID: 42},
	}
	assert.NoError(t, s.Eligible(time.Now()))
}

func TestEligibleExpiredToken(t *testing.T) {
	s := &Session{
		Token: signedToken(t, time.Now().Add(-time.Hour)),
		User:  domain.UserSummary{ID: 42},
	}
	assert.ErrorIs(t, s.Eligible(time.Now()), jwt.ErrExpiredToken)
}

func TestEligibleEmptySession(t *testing.T) {
	s := &Session{}
	assert.ErrorIs(t, s.Eligible(time.Now()), ErrNoSession)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, Save(path, &Session{Token: "x", User: domain.UserSummary{ID: 1}}))

	require.NoError(t, Clear(path))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing twice is not an error.
	assert.NoError(t, Clear(path))
}
