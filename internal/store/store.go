// Package store defines the persistence boundary. Workflows only ever see
// these interfaces, the engines live in sqlstore and mongostore.
package store

import (
	"bitwise74/readstack/internal/model"
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserStore interface {
	// CreateUser fails with ErrDuplicate if the email is taken
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	// MarkVerified sets the verified flag, it never clears it
	MarkVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	UpdateProfile(ctx context.Context, userID string, p model.ProfileUpdate) (*model.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs []string) (*model.User, error)
}

// ArticleStore returns articles with their likes, dislikes and blockedBy
// sets filled in. The reaction methods are single atomic operations.
type ArticleStore interface {
	CreateArticle(ctx context.Context, a *model.Article) error
	FindArticleByID(ctx context.Context, id string) (*model.Article, error)
	FindArticlesByAuthor(ctx context.Context, authorID string) ([]model.Article, error)
	// FindFeed returns a page of articles the viewer hasn't blocked, newest
	// first, plus the total count under the same filter
	FindFeed(ctx context.Context, q model.FeedQuery) ([]model.Article, int64, error)
	UpdateArticle(ctx context.Context, id string, p model.ArticlePatch) (*model.Article, error)
	DeleteArticle(ctx context.Context, id string) error

	// AddLike puts the user in likes and removes them from dislikes
	AddLike(ctx context.Context, articleID, userID string) (*model.Article, error)
	// AddDislike puts the user in dislikes and removes them from likes
	AddDislike(ctx context.Context, articleID, userID string) (*model.Article, error)
	// ToggleBlock flips the user's membership in blockedBy and reports the
	// new state
	ToggleBlock(ctx context.Context, articleID, userID string) (*model.Article, bool, error)
}

type TokenStore interface {
	CreateToken(ctx context.Context, t *model.VerificationToken) error
	// ConsumeToken marks a matching unused and unexpired token as used. It
	// returns ErrNotFound when no such token exists.
	ConsumeToken(ctx context.Context, userID, purpose, digest string, now time.Time) error
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

type Store interface {
	UserStore
	ArticleStore
	TokenStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
