package service

import (
	"bitwise74/readstack/internal/apperr"
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"bitwise74/readstack/pkg/util"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50

	// MaxFeedPage keeps the row offset well inside int range
	MaxFeedPage = 100_000

	msgArticleNotFound = "Article not found"
	msgNotAuthor       = "You are not the author of this article"
	msgInvalidCategory = "Invalid category"
)

type ArticleInput struct {
	Title           string
	Content         datatypes.JSON
	Category        string
	FeaturedImage   *string
	FeaturedImageID *string
}

type FeedParams struct {
	Page     int
	Limit    int
	Category string
}

type FeedPage struct {
	Articles   []model.Article `json:"articles"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
	HasMore    bool            `json:"hasMore"`
}

type UploadedImage struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

type ArticleService struct {
	articles store.ArticleStore
	users    store.UserStore
	assets   AssetHost
}

// NewArticleService wires the article workflow. assets may be nil, uploads
// then fail and asset cleanups are skipped.
func NewArticleService(articles store.ArticleStore, users store.UserStore, assets AssetHost) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		assets:   assets,
	}
}

func (s *ArticleService) Categories() []string {
	return slices.Clone(model.Categories)
}

func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error) {
	if !model.IsCategory(in.Category) {
		return nil, apperr.Validation(msgInvalidCategory)
	}

	id, err := util.NewID()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to generate article ID, %w", err))
	}

	a := &model.Article{
		ID:              id,
		Title:           in.Title,
		Content:         in.Content,
		Category:        in.Category,
		FeaturedImage:   nonEmpty(in.FeaturedImage),
		FeaturedImageID: nonEmpty(in.FeaturedImageID),
		AuthorID:        authorID,
	}

	if err := s.articles.CreateArticle(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.attachAuthors(ctx, []*model.Article{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// UploadImage stores an already validated image under the user's prefix
func (s *ArticleService) UploadImage(ctx context.Context, userID string, body io.Reader, size int64, contentType, ext string) (*UploadedImage, error) {
	if s.assets == nil {
		return nil, apperr.Internal(errors.New("no asset host configured"))
	}

	name, err := util.NewID()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	key := fmt.Sprintf("articles/%s/%s%s", userID, name, ext)

	url, err := s.assets.Upload(ctx, key, contentType, body, size)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &UploadedImage{URL: url, AssetID: key}, nil
}

func (s *ArticleService) Feed(ctx context.Context, viewerID string, p FeedParams) (*FeedPage, error) {
	if p.Page == 0 {
		p.Page = 1
	}

	if p.Limit == 0 {
		p.Limit = DefaultFeedLimit
	}

	if p.Page < 1 {
		return nil, apperr.Validation("Page must be greater than 0")
	}

	if p.Page > MaxFeedPage {
		return nil, apperr.Validation(fmt.Sprintf("Page must be at most %d", MaxFeedPage))
	}

	if p.Limit < 1 {
		return nil, apperr.Validation("Limit must be greater than 0")
	}

	if p.Limit > MaxFeedLimit {
		return nil, apperr.Validation(fmt.Sprintf("Limit must be at most %d", MaxFeedLimit))
	}

	if p.Category != "" && !model.IsCategory(p.Category) {
		return nil, apperr.Validation(msgInvalidCategory)
	}

	entries, total, err := s.articles.FindFeed(ctx, model.FeedQuery{
		ViewerID: viewerID,
		Category: p.Category,
		Offset:   (p.Page - 1) * p.Limit,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.attachAuthors(ctx, ptrs(entries)); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))

	return &FeedPage{
		Articles:   entries,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    int64(p.Page)*int64(p.Limit) < total,
	}, nil
}

func (s *ArticleService) MyArticles(ctx context.Context, userID string) ([]model.Article, error) {
	entries, err := s.articles.FindArticlesByAuthor(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.attachAuthors(ctx, ptrs(entries)); err != nil {
		return nil, err
	}

	return entries, nil
}

// Get hides articles the viewer blocked as if they didn't exist
func (s *ArticleService) Get(ctx context.Context, viewerID, id string) (*model.Article, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if slices.Contains(a.BlockedBy, viewerID) {
		return nil, apperr.NotFound(msgArticleNotFound)
	}

	if err := s.attachAuthors(ctx, []*model.Article{a}); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *ArticleService) Update(ctx context.Context, callerID, id string, patch model.ArticlePatch) (*model.Article, error) {
	a, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Category != nil && !model.IsCategory(*patch.Category) {
		return nil, apperr.Validation(msgInvalidCategory)
	}

	updated, err := s.articles.UpdateArticle(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgArticleNotFound)
		}

		return nil, apperr.Internal(err)
	}

	if a.FeaturedImageID != nil && *a.FeaturedImageID != "" &&
		patch.FeaturedImageID != nil && *patch.FeaturedImageID != *a.FeaturedImageID {
		s.deleteAsset(ctx, a.AuthorID, *a.FeaturedImageID)
	}

	if err := s.attachAuthors(ctx, []*model.Article{updated}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *ArticleService) Delete(ctx context.Context, callerID, id string) error {
	a, err := s.owned(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.articles.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgArticleNotFound)
		}

		return apperr.Internal(err)
	}

	if a.FeaturedImageID != nil && *a.FeaturedImageID != "" {
		s.deleteAsset(ctx, a.AuthorID, *a.FeaturedImageID)
	}

	return nil
}

func (s *ArticleService) ToggleLike(ctx context.Context, userID, id string) (*model.Article, error) {
	a, err := s.articles.AddLike(ctx, id, userID)
	return s.reacted(ctx, a, err)
}

func (s *ArticleService) ToggleDislike(ctx context.Context, userID, id string) (*model.Article, error) {
	a, err := s.articles.AddDislike(ctx, id, userID)
	return s.reacted(ctx, a, err)
}

// ToggleBlock flips whether the article is hidden for userID and returns
// the new state
func (s *ArticleService) ToggleBlock(ctx context.Context, userID, id string) (*model.Article, bool, error) {
	a, blocked, err := s.articles.ToggleBlock(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, apperr.NotFound(msgArticleNotFound)
		}

		return nil, false, apperr.Internal(err)
	}

	return a, blocked, nil
}

func (s *ArticleService) reacted(ctx context.Context, a *model.Article, err error) (*model.Article, error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgArticleNotFound)
		}

		return nil, apperr.Internal(err)
	}

	if err := s.attachAuthors(ctx, []*model.Article{a}); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *ArticleService) find(ctx context.Context, id string) (*model.Article, error) {
	a, err := s.articles.FindArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgArticleNotFound)
		}

		return nil, apperr.Internal(err)
	}

	return a, nil
}

func (s *ArticleService) owned(ctx context.Context, callerID, id string) (*model.Article, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.AuthorID != callerID {
		return nil, apperr.Unauthorized(msgNotAuthor)
	}

	return a, nil
}

// deleteAsset is best effort. Keys outside the author's prefix are never
// touched since the asset ID comes from the client.
func (s *ArticleService) deleteAsset(ctx context.Context, authorID, key string) {
	if s.assets == nil {
		return
	}

	if !strings.HasPrefix(key, "articles/"+authorID+"/") {
		zap.L().Warn("Refusing to delete foreign asset", zap.String("key", key), zap.String("authorID", authorID))
		return
	}

	if err := s.assets.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to delete asset", zap.Error(err), zap.String("key", key))
	}
}

func (s *ArticleService) attachAuthors(ctx context.Context, entries []*model.Article) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	for _, a := range entries {
		if !slices.Contains(ids, a.AuthorID) {
			ids = append(ids, a.AuthorID)
		}
	}

	users, err := s.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return apperr.Internal(err)
	}

	authors := make(map[string]*model.Author, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].Author()
	}

	for _, a := range entries {
		a.Author = authors[a.AuthorID]
	}

	return nil
}

func ptrs(entries []model.Article) []*model.Article {
	out := make([]*model.Article, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}

	return out
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}

	return s
}
