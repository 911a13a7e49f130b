package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess      = "access"
	TokenTypeRefresh     = "refresh"
	TokenTypeEmailVerify = "email_verify"
)

// ErrInvalidToken covers every reason a token can't be accepted: bad
// signature, wrong purpose, expiry or a missing subject.
var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Type   string `json:"type"`
}

type TokenOpts struct {
	AccessSecret       string
	VerificationSecret string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	VerificationTTL    time.Duration
}

// TokenIssuer signs and parses the HS256 tokens used for sessions and
// email verification. Sessions and verification links use different keys.
type TokenIssuer struct {
	accessSecret       []byte
	verificationSecret []byte
	accessTTL          time.Duration
	refreshTTL         time.Duration
	verificationTTL    time.Duration

	now func() time.Time
}

func NewTokenIssuer(o TokenOpts) (*TokenIssuer, error) {
	if o.AccessSecret == "" {
		return nil, errors.New("no access token secret provided")
	}

	if o.VerificationSecret == "" {
		return nil, errors.New("no verification token secret provided")
	}

	if o.AccessTTL <= 0 {
		o.AccessTTL = time.Hour
	}

	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 7 * 24 * time.Hour
	}

	if o.VerificationTTL <= 0 {
		o.VerificationTTL = 24 * time.Hour
	}

	return &TokenIssuer{
		accessSecret:       []byte(o.AccessSecret),
		verificationSecret: []byte(o.VerificationSecret),
		accessTTL:          o.AccessTTL,
		refreshTTL:         o.RefreshTTL,
		verificationTTL:    o.VerificationTTL,
		now:                time.Now,
	}, nil
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

func (t *TokenIssuer) IssueAccessToken(userID string) (string, error) {
	return t.sign(t.accessSecret, Claims{
		UserID:           userID,
		Type:             TokenTypeAccess,
		RegisteredClaims: t.registered(t.accessTTL, ""),
	})
}

func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return t.sign(t.accessSecret, Claims{
		UserID:           userID,
		Type:             TokenTypeRefresh,
		RegisteredClaims: t.registered(t.refreshTTL, uuid.NewString()),
	})
}

func (t *TokenIssuer) IssueVerificationToken(email string) (string, error) {
	return t.sign(t.verificationSecret, Claims{
		Email:            email,
		Type:             TokenTypeEmailVerify,
		RegisteredClaims: t.registered(t.verificationTTL, ""),
	})
}

// ParseAccessToken returns the user ID carried by a valid access token
func (t *TokenIssuer) ParseAccessToken(token string) (string, error) {
	c, err := t.parse(token, t.accessSecret, TokenTypeAccess)
	if err != nil {
		return "", err
	}

	if c.UserID == "" {
		return "", ErrInvalidToken
	}

	return c.UserID, nil
}

func (t *TokenIssuer) ParseRefreshToken(token string) (string, error) {
	c, err := t.parse(token, t.accessSecret, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	if c.UserID == "" {
		return "", ErrInvalidToken
	}

	return c.UserID, nil
}

// VerifyVerificationToken returns the email a verification token was issued for
func (t *TokenIssuer) VerifyVerificationToken(token string) (string, error) {
	c, err := t.parse(token, t.verificationSecret, TokenTypeEmailVerify)
	if err != nil {
		return "", err
	}

	if c.Email == "" {
		return "", ErrInvalidToken
	}

	return c.Email, nil
}

func (t *TokenIssuer) registered(ttl time.Duration, id string) jwt.RegisteredClaims {
	now := t.now()

	return jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) sign(secret []byte, c Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token, %w", c.Type, err)
	}

	return s, nil
}

func (t *TokenIssuer) parse(token string, secret []byte, typ string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var c Claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if c.Type != typ {
		return nil, ErrInvalidToken
	}

	return &c, nil
}
