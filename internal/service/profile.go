package service

import (
	"bitwise74/readstack/internal/apperr"
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"bitwise74/readstack/pkg/security"
	"context"
	"errors"
	"strings"
)

const (
	msgProfileNotFound   = "User not found"
	msgWrongPassword     = "Current password is incorrect"
	msgSamePassword      = "New password must be different from the current one"
	msgNothingToUpdate   = "No fields to update"
	msgInvalidPreference = "Preferences can't be empty or contain commas"
)

type ProfileService struct {
	users  store.UserStore
	hasher security.PasswordHasher
}

func NewProfileService(users store.UserStore, hasher security.PasswordHasher) *ProfileService {
	return &ProfileService{users: users, hasher: hasher}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return scrub(u), nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, p model.ProfileUpdate) (*model.User, error) {
	if p.Empty() {
		return nil, apperr.Validation(msgNothingToUpdate)
	}

	u, err := s.users.UpdateProfile(ctx, userID, p)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return scrub(u), nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return s.mapErr(err)
	}

	if !s.hasher.Verify(current, u.PasswordHash) {
		return apperr.Unauthorized(msgWrongPassword)
	}

	if current == next {
		return apperr.Validation(msgSamePassword)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		if errors.Is(err, security.ErrEmptyPassword) {
			return apperr.Validation("Password is required")
		}

		return apperr.Internal(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return s.mapErr(err)
	}

	return nil
}

// UpdatePreferences replaces the whole preference list
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, prefs []string) (*model.User, error) {
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" || strings.Contains(p, ",") {
			return nil, apperr.Validation(msgInvalidPreference)
		}
	}

	if prefs == nil {
		prefs = []string{}
	}

	u, err := s.users.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return scrub(u), nil
}

func (s *ProfileService) mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msgProfileNotFound)
	}

	return apperr.Internal(err)
}

func scrub(u *model.User) *model.User {
	u.PasswordHash = ""
	return u
}
