// Package service contains the workflows behind the HTTP handlers. They
// only depend on the store interfaces and return apperr errors.
package service

import (
	"bitwise74/readstack/internal/apperr"
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"bitwise74/readstack/pkg/security"
	"bitwise74/readstack/pkg/util"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	resetTokenTTL     = 30 * time.Minute
	resetTokenCleanup = 24 * time.Hour

	msgPasswordMismatch   = "Passwords do not match"
	msgUserExists         = "User already exists"
	msgPendingUser        = "User already registered but not verified. Please verify your email."
	msgUserNotFound       = "User not found. Please register again."
	msgAlreadyVerified    = "Email already verified, please login"
	msgInvalidVerifyLink  = "Verification link is invalid or expired. Please request a new one."
	msgInvalidCredentials = "Invalid credentials"
	msgNotVerified        = "Email not verified. Please verify your email."
	msgNoToken            = "No token provided"
	msgInvalidResetLink   = "Reset link is invalid or expired. Please request a new one."
)

// SignUpInput is a validated registration request
type SignUpInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	DOB             time.Time
	Password        string
	ConfirmPassword string
	Preferences     []string
}

type ResetPasswordInput struct {
	Email           string
	Token           string
	Password        string
	ConfirmPassword string
}

// Session is what a successful sign in or verification hands out. The
// refresh token goes into a cookie, the rest into the body.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	users  store.UserStore
	resets store.TokenStore
	hasher security.PasswordHasher
	tokens *security.TokenIssuer
	mailer Mailer

	now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users store.UserStore, resets store.TokenStore, hasher security.PasswordHasher, tokens *security.TokenIssuer, mailer Mailer) *AuthService {
	return &AuthService{
		users:  users,
		resets: resets,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates a pending user and mails the verification link. Only the
// email is returned, tokens are handed out after verification.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	if in.Password != in.ConfirmPassword {
		return "", apperr.Validation(msgPasswordMismatch)
	}

	existing, err := s.users.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.Verified:
		return "", apperr.Conflict(msgUserExists)
	case err == nil:
		return "", apperr.Conflict(msgPendingUser)
	case !errors.Is(err, store.ErrNotFound):
		return "", apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrEmptyPassword) {
			return "", apperr.Validation("Password is required")
		}

		return "", apperr.Internal(fmt.Errorf("failed to hash password, %w", err))
	}

	id, err := util.NewID()
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("failed to generate user ID, %w", err))
	}

	prefs := in.Preferences
	if prefs == nil {
		prefs = []string{}
	}

	u := &model.User{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		DOB:          in.DOB.UTC(),
		PasswordHash: hash,
		Preferences:  prefs,
		Verified:     false,
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", apperr.Conflict(msgUserExists)
		}

		return "", apperr.Internal(err)
	}

	token, err := s.tokens.IssueVerificationToken(u.Email)
	if err != nil {
		return "", apperr.Internal(err)
	}

	if err := s.mailer.SendVerificationMail(ctx, u.Email, u.FirstName, token); err != nil {
		return "", apperr.Internal(fmt.Errorf("failed to send verification email, %w", err))
	}

	return u.Email, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, token string) (*Session, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}

		return nil, apperr.Internal(err)
	}

	if u.Verified {
		return nil, apperr.BadRequest(msgAlreadyVerified)
	}

	tokenEmail, err := s.tokens.VerifyVerificationToken(token)
	if err != nil || tokenEmail != u.Email {
		return nil, apperr.Unauthorized(msgInvalidVerifyLink)
	}

	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return nil, apperr.Internal(err)
	}

	return s.issueSession(u)
}

// SignIn answers the same way for an unknown email and a wrong password.
// The unverified state is only revealed to whoever knows the password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err)
		}

		s.hasher.Verify(password, s.dummy())
		return nil, apperr.BadRequest(msgInvalidCredentials)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, apperr.BadRequest(msgInvalidCredentials)
	}

	if !u.Verified {
		return nil, apperr.Unauthorized(msgNotVerified)
	}

	return s.issueSession(u)
}

// Logout has nothing to revoke server side, it only checks a session
// cookie was actually present
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return apperr.BadRequest(msgNoToken)
	}

	return nil
}

// ResendVerification mails a fresh verification link to pending users.
// Every other case is silently ignored.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}

		return apperr.Internal(err)
	}

	if u.Verified {
		return nil
	}

	token, err := s.tokens.IssueVerificationToken(u.Email)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.mailer.SendVerificationMail(ctx, u.Email, u.FirstName, token); err != nil {
		zap.L().Error("Failed to resend verification email", zap.Error(err), zap.String("userID", u.ID))
	}

	return nil
}

// RequestPasswordReset always succeeds from the caller's point of view so
// it can't be used to probe for accounts
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}

		return apperr.Internal(err)
	}

	if !u.Verified {
		return nil
	}

	expiresAt := s.now().Add(resetTokenTTL)
	cleanupAt := s.now().Add(resetTokenCleanup)

	raw, record, err := security.MakeVerificationToken(&security.VerificationTokenOpts{
		UserID:    u.ID,
		Purpose:   security.PurposePasswordReset,
		ExpiresAt: &expiresAt,
		CleanupAt: &cleanupAt,
	})
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.resets.CreateToken(ctx, record); err != nil {
		return apperr.Internal(err)
	}

	if err := s.mailer.SendPasswordResetMail(ctx, u.Email, u.FirstName, raw); err != nil {
		zap.L().Error("Failed to send password reset email", zap.Error(err), zap.String("userID", u.ID))
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.Password != in.ConfirmPassword {
		return apperr.Validation(msgPasswordMismatch)
	}

	u, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Unauthorized(msgInvalidResetLink)
		}

		return apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrEmptyPassword) {
			return apperr.Validation("Password is required")
		}

		return apperr.Internal(err)
	}

	err = s.resets.ConsumeToken(ctx, u.ID, security.PurposePasswordReset, security.DigestToken(in.Token), s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Unauthorized(msgInvalidResetLink)
		}

		return apperr.Internal(err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err)
	}

	return nil
}

func (s *AuthService) issueSession(u *model.User) (*Session, error) {
	access, err := s.tokens.IssueAccessToken(u.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// dummy is a real hash used to spend the same effort on unknown emails
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(util.RandStr(16))
		if err != nil {
			zap.L().Warn("Failed to create dummy password hash", zap.Error(err))
		}
		s.dummyHash = h
	})

	return s.dummyHash
}
