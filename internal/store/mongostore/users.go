package mongostore

import (
	"bitwise74/readstack/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if u.Preferences == nil {
		u.Preferences = model.StringSlice{}
	}

	ts := now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = ts
	}
	u.UpdatedAt = ts

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return wrap("create user", err)
	}

	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "find user", bson.M{"_id": id})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "find user by email", bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var u model.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, wrap(op, err)
	}

	return &u, nil
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap("find users", err)
	}

	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrap("decode users", err)
	}

	return users, nil
}

func (s *Store) MarkVerified(ctx context.Context, userID string) error {
	return s.setUser(ctx, "verify user", userID, bson.M{"verified": true})
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	return s.setUser(ctx, "update password", userID, bson.M{"password_hash": hash})
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p model.ProfileUpdate) (*model.User, error) {
	set := bson.M{}

	if p.FirstName != nil {
		set["first_name"] = *p.FirstName
	}

	if p.LastName != nil {
		set["last_name"] = *p.LastName
	}

	if p.Phone != nil {
		set["phone"] = *p.Phone
	}

	if p.DOB != nil {
		set["dob"] = p.DOB.UTC()
	}

	if len(set) == 0 {
		return s.FindUserByID(ctx, userID)
	}

	return s.updateUser(ctx, "update profile", userID, set)
}

func (s *Store) UpdatePreferences(ctx context.Context, userID string, prefs []string) (*model.User, error) {
	if prefs == nil {
		prefs = []string{}
	}

	return s.updateUser(ctx, "update preferences", userID, bson.M{"preferences": prefs})
}

func (s *Store) setUser(ctx context.Context, op, userID string, set bson.M) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	set["updated_at"] = now()

	r, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return wrap(op, err)
	}

	if r.MatchedCount == 0 {
		return wrap(op, mongo.ErrNoDocuments)
	}

	return nil
}

func (s *Store) updateUser(ctx context.Context, op, userID string, set bson.M) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	set["updated_at"] = now()

	var u model.User

	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, wrap(op, err)
	}

	return &u, nil
}
