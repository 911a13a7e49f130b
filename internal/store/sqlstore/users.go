package sqlstore

import (
	"bitwise74/readstack/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if u.Preferences == nil {
		u.Preferences = model.StringSlice{}
	}

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return wrap("create user", err)
	}

	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, wrap("find user", err)
	}

	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap("find user by email", err)
	}

	return &u, nil
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrap("find users", err)
	}

	return users, nil
}

func (s *Store) MarkVerified(ctx context.Context, userID string) error {
	return s.updateUser(ctx, "verify user", userID, map[string]any{"verified": true})
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	return s.updateUser(ctx, "update password", userID, map[string]any{"password_hash": hash})
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p model.ProfileUpdate) (*model.User, error) {
	fields := map[string]any{}

	if p.FirstName != nil {
		fields["first_name"] = *p.FirstName
	}

	if p.LastName != nil {
		fields["last_name"] = *p.LastName
	}

	if p.Phone != nil {
		fields["phone"] = *p.Phone
	}

	if p.DOB != nil {
		fields["dob"] = p.DOB.UTC()
	}

	if len(fields) > 0 {
		if err := s.updateUser(ctx, "update profile", userID, fields); err != nil {
			return nil, err
		}
	}

	return s.FindUserByID(ctx, userID)
}

func (s *Store) UpdatePreferences(ctx context.Context, userID string, prefs []string) (*model.User, error) {
	err := s.updateUser(ctx, "update preferences", userID, map[string]any{
		"preferences": model.StringSlice(prefs),
	})
	if err != nil {
		return nil, err
	}

	return s.FindUserByID(ctx, userID)
}

func (s *Store) updateUser(ctx context.Context, op, userID string, fields map[string]any) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()

	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(fields)
	if r.Error != nil {
		return wrap(op, r.Error)
	}

	if r.RowsAffected == 0 {
		return wrap(op, gorm.ErrRecordNotFound)
	}

	return nil
}
