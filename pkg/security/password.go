package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	HasherBcrypt = "bcrypt"
	HasherArgon  = "argon2id"

	DefaultBcryptCost = 10
)

var (
	ErrEmptyPassword   = errors.New("password can't be empty")
	ErrUnknownHasher   = errors.New("unknown password hasher")
	bcryptHashPrefixes = []string{"$2a$", "$2b$", "$2y$"}
)

// PasswordHasher turns plaintext passwords into storable hashes and checks
// candidates against them. Verify never fails loudly, a malformed hash is
// just a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Passwords hashes new passwords with the configured algorithm and verifies
// any hash it knows how to read, so bcrypt and argon2id records can live
// side by side.
type Passwords struct {
	algo       string
	bcryptCost int
	argon      argonParams
}

func NewPasswords(algo string) (*Passwords, error) {
	if algo == "" {
		algo = HasherBcrypt
	}

	if algo != HasherBcrypt && algo != HasherArgon {
		return nil, ErrUnknownHasher
	}

	return &Passwords{
		algo:       algo,
		bcryptCost: DefaultBcryptCost,
		argon:      defaultArgon,
	}, nil
}

// WithBcryptCost is mostly useful in tests where the default cost is slow.
func (p *Passwords) WithBcryptCost(cost int) *Passwords {
	p.bcryptCost = cost
	return p
}

func (p *Passwords) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if p.algo == HasherArgon {
		return p.argon.hash(password)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (p *Passwords) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	if strings.HasPrefix(hash, argonPrefix) {
		ok, err := verifyArgon(password, hash)
		return err == nil && ok
	}

	for _, prefix := range bcryptHashPrefixes {
		if strings.HasPrefix(hash, prefix) {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		}
	}

	return false
}
