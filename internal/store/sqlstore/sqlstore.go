// Package sqlstore implements the store interfaces on top of gorm. It runs
// against SQLite for local setups and tests and against Postgres in
// production.
package sqlstore

import (
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// reaction is a like or a dislike. The composite key makes the two
// mutually exclusive per user and article.
type reaction struct {
	ArticleID string    `gorm:"primaryKey;size:16"`
	UserID    string    `gorm:"primaryKey;size:16;index"`
	Kind      string    `gorm:"size:8;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (reaction) TableName() string { return "article_reactions" }

type articleBlock struct {
	ArticleID string `gorm:"primaryKey;size:16"`
	UserID    string `gorm:"primaryKey;size:16;index"`
	CreatedAt time.Time
}

func (articleBlock) TableName() string { return "article_blocks" }

const (
	kindLike    = "like"
	kindDislike = "dislike"
)

// Open connects through the given dialector and migrates the schema.
// Every call made through the store is bounded by timeout.
func Open(dialector gorm.Dialector, timeout time.Duration) (*Store, error) {
	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	return New(db, timeout)
}

// GormConfig translates driver errors so duplicates can be detected
// regardless of the engine, and keeps every timestamp in UTC. Missing rows
// are expected lookups and are not logged.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormLogger(zap.NewStdLog(zap.L())),
	}
}

func gormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// New wraps an already open connection
func New(db *gorm.DB, timeout time.Duration) (*Store, error) {
	err := db.AutoMigrate(model.User{}, model.Article{}, model.VerificationToken{}, reaction{}, articleBlock{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return &Store{db: db, timeout: timeout}, nil
}

// DB exposes the underlying connection, used by tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}

// wrap translates gorm errors into the store sentinels
func wrap(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to %s, %w", op, store.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("failed to %s, %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s, %w", op, err)
	}
}
