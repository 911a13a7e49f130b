package mongostore

import (
	"bitwise74/readstack/internal/model"
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) CreateArticle(ctx context.Context, a *model.Article) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	a.Normalize()

	ts := now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts

	if _, err := s.articles.InsertOne(ctx, a); err != nil {
		return wrap("create article", err)
	}

	return nil
}

func (s *Store) FindArticleByID(ctx context.Context, id string) (*model.Article, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var a model.Article
	if err := s.articles.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, wrap("find article", err)
	}

	a.Normalize()
	return &a, nil
}

func (s *Store) FindArticlesByAuthor(ctx context.Context, authorID string) ([]model.Article, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.findMany(ctx, "find articles by author", bson.M{"author_id": authorID}, options.Find().SetSort(newestFirst))
}

func (s *Store) FindFeed(ctx context.Context, q model.FeedQuery) ([]model.Article, int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	filter := bson.M{}

	if q.ViewerID != "" {
		// $ne on an array matches documents where no element equals the viewer
		filter["blocked_by"] = bson.M{"$ne": q.ViewerID}
	}

	if q.Category != "" {
		filter["category"] = q.Category
	}

	total, err := s.articles.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap("count feed", err)
	}

	entries, err := s.findMany(ctx, "query feed", filter, options.Find().
		SetSort(newestFirst).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit)))
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (s *Store) findMany(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]model.Article, error) {
	cur, err := s.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(op, err)
	}

	entries := []model.Article{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, wrap(op, err)
	}

	for i := range entries {
		entries[i].Normalize()
	}

	return entries, nil
}

func (s *Store) UpdateArticle(ctx context.Context, id string, p model.ArticlePatch) (*model.Article, error) {
	set := bson.M{"updated_at": now()}
	unset := bson.M{}

	if p.Title != nil {
		set["title"] = *p.Title
	}

	if p.Content != nil {
		set["content"] = p.Content
	}

	if p.Category != nil {
		set["category"] = *p.Category
	}

	if p.FeaturedImageID != nil && *p.FeaturedImageID == "" {
		unset["featured_image"] = ""
		unset["featured_image_id"] = ""
	} else {
		if p.FeaturedImage != nil {
			set["featured_image"] = *p.FeaturedImage
		}

		if p.FeaturedImageID != nil {
			set["featured_image_id"] = *p.FeaturedImageID
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return s.modify(ctx, "update article", id, update)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	r, err := s.articles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete article", err)
	}

	if r.DeletedCount == 0 {
		return wrap("delete article", mongo.ErrNoDocuments)
	}

	return nil
}

func (s *Store) AddLike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	return s.modify(ctx, "save like", articleID, bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$pull":     bson.M{"dislikes": userID},
	})
}

func (s *Store) AddDislike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	return s.modify(ctx, "save dislike", articleID, bson.M{
		"$addToSet": bson.M{"dislikes": userID},
		"$pull":     bson.M{"likes": userID},
	})
}

// ToggleBlock flips membership with a pipeline update so the read and the
// write happen in one document operation
func (s *Store) ToggleBlock(ctx context.Context, articleID, userID string) (*model.Article, bool, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$blocked_by", bson.A{}}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "blocked_by", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{userID, current}}},
				bson.D{{Key: "$setDifference", Value: bson.A{current, bson.A{userID}}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{userID}}}},
			}}}},
		}}},
	}

	a, err := s.modify(ctx, "toggle block", articleID, pipeline)
	if err != nil {
		return nil, false, err
	}

	return a, slices.Contains(a.BlockedBy, userID), nil
}

func (s *Store) modify(ctx context.Context, op, id string, update any) (*model.Article, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var a model.Article

	err := s.articles.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return nil, wrap(op, err)
	}

	a.Normalize()
	return &a, nil
}
