package internal

import (
	"bitwise74/readstack/config"
	"bitwise74/readstack/internal/service"
	"bitwise74/readstack/internal/store"
	"bitwise74/readstack/pkg/security"
	"fmt"
)

// Deps holds everything the handlers need. Built once at start up.
type Deps struct {
	Config   *config.Config
	Store    store.Store
	Tokens   *security.TokenIssuer
	Auth     *service.AuthService
	Articles *service.ArticleService
	Profiles *service.ProfileService
}

// NewDeps wires the workflows on top of an open store. assets may be nil.
func NewDeps(cfg *config.Config, st store.Store, mailer service.Mailer, assets service.AssetHost) (*Deps, error) {
	hasher, err := security.NewPasswords(cfg.Security.PasswordHasher)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher, %w", err)
	}

	tokens, err := security.NewTokenIssuer(security.TokenOpts{
		AccessSecret:       cfg.JWT.AccessSecret,
		VerificationSecret: cfg.JWT.VerificationSecret,
		AccessTTL:          cfg.JWT.AccessTTL,
		RefreshTTL:         cfg.JWT.RefreshTTL,
		VerificationTTL:    cfg.JWT.VerificationTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer, %w", err)
	}

	return &Deps{
		Config:   cfg,
		Store:    st,
		Tokens:   tokens,
		Auth:     service.NewAuthService(st, st, hasher, tokens, mailer),
		Articles: service.NewArticleService(st, st, assets),
		Profiles: service.NewProfileService(st, hasher),
	}, nil
}
