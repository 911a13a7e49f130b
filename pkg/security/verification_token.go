package security

import (
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/pkg/util"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

const (
	tokenSize = 32

	PurposePasswordReset = "password_reset"
)

type VerificationTokenOpts struct {
	UserID    string
	Purpose   string
	ExpiresAt *time.Time
	CleanupAt *time.Time
}

// DigestToken is what gets stored and compared. The raw token only ever
// leaves the server inside an email.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// MakeVerificationToken creates a random single use token. The returned
// string is the raw token, the record only carries its digest.
func MakeVerificationToken(o *VerificationTokenOpts) (string, *model.VerificationToken, error) {
	if o == nil {
		return "", nil, errors.New("no token options provided")
	}

	if o.UserID == "" {
		return "", nil, errors.New("no user ID provided")
	}

	if o.Purpose == "" {
		return "", nil, errors.New("no token purpose provided")
	}

	if o.ExpiresAt == nil {
		return "", nil, errors.New("no expiry provided")
	}

	raw, err := util.GenerateToken(tokenSize)
	if err != nil {
		return "", nil, err
	}

	id, err := util.NewID()
	if err != nil {
		return "", nil, err
	}

	return raw, &model.VerificationToken{
		ID:          id,
		UserID:      o.UserID,
		TokenDigest: DigestToken(raw),
		Purpose:     o.Purpose,
		ExpiresAt:   *o.ExpiresAt,
		CreatedAt:   time.Now(),
		CleanupAt:   o.CleanupAt,
		Used:        false,
	}, nil
}
