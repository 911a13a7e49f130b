package mongostore

import (
	"bitwise74/readstack/internal/model"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *Store) CreateToken(ctx context.Context, t *model.VerificationToken) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.tokens.InsertOne(ctx, t); err != nil {
		return wrap("create verification token", err)
	}

	return nil
}

func (s *Store) ConsumeToken(ctx context.Context, userID, purpose, digest string, at time.Time) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	at = at.UTC()

	r, err := s.tokens.UpdateOne(ctx,
		bson.M{
			"user_id":      userID,
			"purpose":      purpose,
			"token_digest": digest,
			"used":         false,
			"expires_at":   bson.M{"$gt": at},
		},
		bson.M{"$set": bson.M{"used": true, "used_at": at}},
	)
	if err != nil {
		return wrap("consume verification token", err)
	}

	if r.MatchedCount == 0 {
		return wrap("consume verification token", mongo.ErrNoDocuments)
	}

	return nil
}

func (s *Store) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	before = before.UTC()

	r, err := s.tokens.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lt": before}},
		bson.M{"cleanup_at": bson.M{"$lt": before}},
	}})
	if err != nil {
		return 0, wrap("delete expired tokens", err)
	}

	return r.DeletedCount, nil
}
