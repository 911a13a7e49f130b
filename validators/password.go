package validators

import (
	"errors"
	"strings"
	"unicode"
)

const (
	minPasswordLen = 6
	// bcrypt ignores anything past 72 bytes
	maxPasswordLen = 72

	passwordSymbols = "@$!%*#?&"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordInvalid  = errors.New("password contains invalid characters")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordWeak     = errors.New("password must contain at least one letter and one number")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < minPasswordLen {
		return ErrPasswordTooShort
	}

	if len(p) > maxPasswordLen {
		return ErrPasswordTooLong
	}

	var letter, digit bool

	for _, r := range p {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
		default:
			return ErrPasswordInvalid
		}
	}

	if !letter || !digit {
		return ErrPasswordWeak
	}

	return nil
}
