package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()

	i, err := NewTokenIssuer(TokenOpts{
		AccessSecret:       "access-secret",
		VerificationSecret: "verification-secret",
	})
	require.NoError(t, err)

	return i
}

func TestAccessToken(t *testing.T) {
	i := newIssuer(t)

	tok, err := i.IssueAccessToken("user1")
	require.NoError(t, err)

	id, err := i.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user1", id)

	_, err = i.ParseRefreshToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHasID(t *testing.T) {
	i := newIssuer(t)

	a, err := i.IssueRefreshToken("user1")
	require.NoError(t, err)
	b, err := i.IssueRefreshToken("user1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	id, err := i.ParseRefreshToken(a)
	require.NoError(t, err)
	assert.Equal(t, "user1", id)

	_, err = i.ParseAccessToken(a)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerificationToken(t *testing.T) {
	i := newIssuer(t)

	tok, err := i.IssueVerificationToken("a@x.com")
	require.NoError(t, err)

	email, err := i.VerifyVerificationToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	_, err = i.VerifyVerificationToken(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = i.ParseAccessToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerificationTokenUsesOwnSecret(t *testing.T) {
	i := newIssuer(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "a@x.com",
		Type:  TokenTypeEmailVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = i.VerifyVerificationToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	i := newIssuer(t)
	i.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	tok, err := i.IssueVerificationToken("a@x.com")
	require.NoError(t, err)

	i.now = time.Now

	_, err = i.VerifyVerificationToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsOtherAlgorithms(t *testing.T) {
	i := newIssuer(t)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user1",
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = i.ParseAccessToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerNeedsSecrets(t *testing.T) {
	_, err := NewTokenIssuer(TokenOpts{VerificationSecret: "x"})
	assert.Error(t, err)

	_, err = NewTokenIssuer(TokenOpts{AccessSecret: "x"})
	assert.Error(t, err)
}
