package sqlstore

import (
	"bitwise74/readstack/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

func (s *Store) CreateToken(ctx context.Context, t *model.VerificationToken) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return wrap("create verification token", err)
	}

	return nil
}

// ConsumeToken is a single conditional update so a token can't be spent twice
func (s *Store) ConsumeToken(ctx context.Context, userID, purpose, digest string, now time.Time) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	now = now.UTC()

	r := s.db.WithContext(ctx).
		Model(&model.VerificationToken{}).
		Where("user_id = ? AND purpose = ? AND token_digest = ? AND used = ? AND expires_at > ?",
			userID, purpose, digest, false, now).
		Updates(map[string]any{
			"used":    true,
			"used_at": now,
		})
	if r.Error != nil {
		return wrap("consume verification token", r.Error)
	}

	if r.RowsAffected == 0 {
		return wrap("consume verification token", gorm.ErrRecordNotFound)
	}

	return nil
}

func (s *Store) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	before = before.UTC()

	r := s.db.WithContext(ctx).
		Where("expires_at < ? OR (cleanup_at IS NOT NULL AND cleanup_at < ?)", before, before).
		Delete(&model.VerificationToken{})
	if r.Error != nil {
		return 0, wrap("delete expired tokens", r.Error)
	}

	return r.RowsAffected, nil
}
