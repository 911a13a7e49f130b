package sqlstore

import (
	"bitwise74/readstack/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notBlockedBy = "NOT EXISTS (SELECT 1 FROM article_blocks b WHERE b.article_id = articles.id AND b.user_id = ?)"

func (s *Store) CreateArticle(ctx context.Context, a *model.Article) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return wrap("create article", err)
	}

	a.Normalize()
	return nil
}

func (s *Store) FindArticleByID(ctx context.Context, id string) (*model.Article, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var a model.Article
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, wrap("find article", err)
	}

	entries := []model.Article{a}
	if err := hydrate(s.db.WithContext(ctx), entries); err != nil {
		return nil, err
	}

	return &entries[0], nil
}

func (s *Store) FindArticlesByAuthor(ctx context.Context, authorID string) ([]model.Article, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var entries []model.Article

	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Order("id desc").
		Find(&entries).
		Error
	if err != nil {
		return nil, wrap("find articles by author", err)
	}

	if err := hydrate(s.db.WithContext(ctx), entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *Store) FindFeed(ctx context.Context, q model.FeedQuery) ([]model.Article, int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	base := s.db.WithContext(ctx).Model(&model.Article{})

	if q.ViewerID != "" {
		base = base.Where(notBlockedBy, q.ViewerID)
	}

	if q.Category != "" {
		base = base.Where("category = ?", q.Category)
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, wrap("count feed", err)
	}

	var entries []model.Article

	err := base.
		Order("created_at desc").
		Order("id desc").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&entries).
		Error
	if err != nil {
		return nil, 0, wrap("query feed", err)
	}

	if err := hydrate(s.db.WithContext(ctx), entries); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (s *Store) UpdateArticle(ctx context.Context, id string, p model.ArticlePatch) (*model.Article, error) {
	fields := map[string]any{}

	if p.Title != nil {
		fields["title"] = *p.Title
	}

	if p.Content != nil {
		fields["content"] = p.Content
	}

	if p.Category != nil {
		fields["category"] = *p.Category
	}

	if p.FeaturedImageID != nil && *p.FeaturedImageID == "" {
		fields["featured_image"] = nil
		fields["featured_image_id"] = nil
	} else {
		if p.FeaturedImage != nil {
			fields["featured_image"] = *p.FeaturedImage
		}

		if p.FeaturedImageID != nil {
			fields["featured_image_id"] = *p.FeaturedImageID
		}
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()

		tctx, cancel := s.bound(ctx)
		r := s.db.WithContext(tctx).
			Model(&model.Article{}).
			Where("id = ?", id).
			Updates(fields)
		cancel()

		if r.Error != nil {
			return nil, wrap("update article", r.Error)
		}

		if r.RowsAffected == 0 {
			return nil, wrap("update article", gorm.ErrRecordNotFound)
		}
	}

	return s.FindArticleByID(ctx, id)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Where("id = ?", id).Delete(&model.Article{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("article_id = ?", id).Delete(&reaction{}).Error; err != nil {
			return err
		}

		return tx.Where("article_id = ?", id).Delete(&articleBlock{}).Error
	})
	if err != nil {
		return wrap("delete article", err)
	}

	return nil
}

func (s *Store) AddLike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	return s.react(ctx, articleID, userID, kindLike)
}

func (s *Store) AddDislike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	return s.react(ctx, articleID, userID, kindDislike)
}

// react upserts the user's single reaction row, switching its kind if one
// already exists
func (s *Store) react(ctx context.Context, articleID, userID, kind string) (*model.Article, error) {
	tctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureArticle(tx, articleID); err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "article_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind"}),
		}).Create(&reaction{
			ArticleID: articleID,
			UserID:    userID,
			Kind:      kind,
		}).Error
	})
	if err != nil {
		return nil, wrap("save "+kind, err)
	}

	return s.FindArticleByID(ctx, articleID)
}

func (s *Store) ToggleBlock(ctx context.Context, articleID, userID string) (*model.Article, bool, error) {
	tctx, cancel := s.bound(ctx)
	defer cancel()

	var blocked bool

	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureArticle(tx, articleID); err != nil {
			return err
		}

		r := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&articleBlock{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected > 0 {
			blocked = false
			return nil
		}

		blocked = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&articleBlock{
			ArticleID: articleID,
			UserID:    userID,
		}).Error
	})
	if err != nil {
		return nil, false, wrap("toggle block", err)
	}

	a, err := s.FindArticleByID(ctx, articleID)
	if err != nil {
		return nil, false, err
	}

	return a, blocked, nil
}

func ensureArticle(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&model.Article{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// hydrate fills in the reaction and block sets of the given articles
func hydrate(db *gorm.DB, entries []model.Article) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	idx := make(map[string]*model.Article, len(entries))

	for i := range entries {
		entries[i].Normalize()
		ids[i] = entries[i].ID
		idx[entries[i].ID] = &entries[i]
	}

	var reactions []reaction
	err := db.Where("article_id IN ?", ids).
		Order("created_at asc").
		Find(&reactions).
		Error
	if err != nil {
		return wrap("load reactions", err)
	}

	for _, r := range reactions {
		a := idx[r.ArticleID]
		switch r.Kind {
		case kindLike:
			a.Likes = append(a.Likes, r.UserID)
		case kindDislike:
			a.Dislikes = append(a.Dislikes, r.UserID)
		}
	}

	var blocks []articleBlock
	err = db.Where("article_id IN ?", ids).
		Order("created_at asc").
		Find(&blocks).
		Error
	if err != nil {
		return wrap("load blocks", err)
	}

	for _, b := range blocks {
		a := idx[b.ArticleID]
		a.BlockedBy = append(a.BlockedBy, b.UserID)
	}

	return nil
}
