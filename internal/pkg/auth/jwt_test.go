package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_IssueAndParse(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := s.Issue("alice", 0)
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSigner_Parse(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	other, err := NewSigner("other-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("alice", time.Hour)
	require.NoError(t, err)

	expired := &Signer{secret: s.secret, ttl: time.Hour, now: func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}}
	stale, err := expired.Issue("alice", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: ErrTokenMissing},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrTokenInvalid},
		{name: "wrong_secret", token: foreign, wantErr: ErrTokenInvalid},
		{name: "expired", token: stale, wantErr: ErrTokenInvalid},
		{name: "alg_none", token: none, wantErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Parse(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewSigner_EmptySecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.Error(t, err)
}

func TestSigner_IssueRequiresSubject(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = s.Issue("", time.Hour)
	assert.Error(t, err)
}
