// Package app glues the handlers, middleware and workflows together
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bitwise74/readstack/app/article"
	"bitwise74/readstack/app/auth"
	"bitwise74/readstack/app/response"
	"bitwise74/readstack/app/root"
	"bitwise74/readstack/app/user"
	"bitwise74/readstack/aws"
	"bitwise74/readstack/cloudflare"
	"bitwise74/readstack/config"
	"bitwise74/readstack/db"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/service"
	"bitwise74/readstack/pkg/middleware"
	"bitwise74/readstack/validators"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	jsonBodyLimit = 1 << 20
	// Room for the multipart envelope around the image
	multipartOverhead = 1 << 20
)

// App is a fully wired server
type App struct {
	Deps   *internal.Deps
	Router *gin.Engine
}

// New connects to every external service named in cfg and builds the router
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := db.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}

	assets, err := newAssetHost(ctx, cfg.Assets)
	if err != nil {
		st.Close(ctx)
		return nil, fmt.Errorf("failed to initialize asset host, %w", err)
	}

	d, err := internal.NewDeps(cfg, st, mailer, assets)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}

	router, err := Routes(ctx, d)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}

	return &App{Deps: d, Router: router}, nil
}

func newMailer(cfg *config.Config) (service.Mailer, error) {
	if !cfg.Mail.Enabled() {
		zap.L().Warn("No mail.host configured, emails will only be logged")
		return service.LogMailer{}, nil
	}

	m, err := service.NewSMTPMailer(service.SMTPConfig{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		Sender:    cfg.Mail.Sender,
		ClientURL: cfg.Host.ClientURL,
		Timeout:   cfg.Mail.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer, %w", err)
	}

	return m, nil
}

func newAssetHost(ctx context.Context, c config.AssetsConfig) (service.AssetHost, error) {
	var (
		h   *service.S3AssetHost
		err error
	)

	switch c.Provider {
	case "":
		zap.L().Warn("No assets.provider configured, image uploads are disabled")
		return nil, nil
	case "s3":
		s3, cerr := aws.NewS3(ctx, c)
		if cerr != nil {
			return nil, cerr
		}

		h, err = service.NewS3AssetHost(s3.C, s3.Bucket, c.PublicURL, c.Timeout)
	case "r2":
		r2, cerr := cloudflare.NewR2(ctx, c)
		if cerr != nil {
			return nil, cerr
		}

		h, err = service.NewS3AssetHost(r2.C, r2.Bucket, c.PublicURL, c.Timeout)
	default:
		return nil, errors.New("unknown asset provider")
	}

	if err != nil {
		return nil, err
	}

	return h, nil
}

// Routes builds the HTTP engine on top of already wired deps. Background
// helpers started here stop with ctx.
func Routes(ctx context.Context, d *internal.Deps) (*gin.Engine, error) {
	if err := validators.Register(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics, %w", err)
	}

	cfg := d.Config
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.TurnstileHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		metrics.Middleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		response.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	jwt := middleware.NewJWTMiddleware(d.Tokens, d.Store)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled: cfg.Security.TurnstileEnabled,
		Secret:  cfg.Security.TurnstileSecret,
	})

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             int(cfg.Security.RateLimit * 2),
	})
	go limiter.Cleanup(ctx)

	jsonLimit := middleware.BodySizeLimiter(jsonBodyLimit)
	uploadLimit := middleware.BodySizeLimiter(cfg.Upload.MaxSize + multipartOverhead)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/health		-> Checks the store can be reached
		main.GET("/health", func(c *gin.Context) { root.Health(c, d) })

		// GET /api/metrics		-> Prometheus metrics
		main.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	a := main.Group("/auth", limiter.Middleware(), jsonLimit)
	{
		// POST /api/auth/signUp		-> Registers a pending user and mails a verification link
		a.POST("/signUp", turnstile, func(c *gin.Context) { auth.SignUp(c, d) })

		// PATCH /api/auth/verify-email	-> Verifies a pending user and signs them in
		a.PATCH("/verify-email", func(c *gin.Context) { auth.VerifyEmail(c, d) })

		// POST /api/auth/resend-verification -> Mails a fresh verification link
		a.POST("/resend-verification", turnstile, func(c *gin.Context) { auth.ResendVerification(c, d) })

		// POST /api/auth/signIn		-> Signs in a verified user
		a.POST("/signIn", func(c *gin.Context) { auth.SignIn(c, d) })

		// POST /api/auth/forgot-password	-> Mails a password reset link
		a.POST("/forgot-password", turnstile, func(c *gin.Context) { auth.ForgotPassword(c, d) })

		// POST /api/auth/reset-password	-> Sets a new password using a reset link
		a.POST("/reset-password", func(c *gin.Context) { auth.ResetPassword(c, d) })

		// POST /api/auth/logout		-> Clears the refresh token cookie
		a.POST("/logout", func(c *gin.Context) { auth.Logout(c, d) })
	}

	// GET /api/articles/categories	-> Lists the article categories
	main.GET("/articles/categories", cacheFor(10*60), func(c *gin.Context) { article.Categories(c, d) })

	ar := main.Group("/articles", jwt)
	{
		// POST /api/articles		-> Creates an article
		ar.POST("", jsonLimit, func(c *gin.Context) { article.Create(c, d) })

		// POST /api/articles/upload-image	-> Uploads a featured image
		ar.POST("/upload-image", uploadLimit, func(c *gin.Context) { article.UploadImage(c, d) })

		// GET /api/articles/feed		-> Lists articles not blocked by the caller
		ar.GET("/feed", func(c *gin.Context) { article.Feed(c, d) })

		// GET /api/articles/my-articles	-> Lists the caller's articles
		ar.GET("/my-articles", func(c *gin.Context) { article.MyArticles(c, d) })

		// GET /api/articles/:id		-> Returns an article
		ar.GET("/:id", func(c *gin.Context) { article.Get(c, d) })

		// PATCH /api/articles/:id		-> Updates an article owned by the caller
		ar.PATCH("/:id", jsonLimit, func(c *gin.Context) { article.Update(c, d) })

		// DELETE /api/articles/:id	-> Deletes an article owned by the caller
		ar.DELETE("/:id", func(c *gin.Context) { article.Delete(c, d) })

		// POST /api/articles/:id/like	-> Likes an article
		ar.POST("/:id/like", func(c *gin.Context) { article.Like(c, d) })

		// POST /api/articles/:id/dislike	-> Dislikes an article
		ar.POST("/:id/dislike", func(c *gin.Context) { article.Dislike(c, d) })

		// PATCH /api/articles/:id/block	-> Hides or unhides an article for the caller
		ar.PATCH("/:id/block", func(c *gin.Context) { article.Block(c, d) })
	}

	u := main.Group("/users", jwt, jsonLimit)
	{
		// GET /api/users/profile		-> Returns the caller's profile
		u.GET("/profile", func(c *gin.Context) { user.GetProfile(c, d) })

		// PATCH /api/users/profile	-> Updates the caller's profile
		u.PATCH("/profile", func(c *gin.Context) { user.UpdateProfile(c, d) })

		// PATCH /api/users/password	-> Changes the caller's password
		u.PATCH("/password", func(c *gin.Context) { user.ChangePassword(c, d) })

		// PATCH /api/users/preferences	-> Replaces the caller's preferences
		u.PATCH("/preferences", func(c *gin.Context) { user.UpdatePreferences(c, d) })
	}

	return router, nil
}

var cacheStore = persist.NewMemoryStore(time.Minute)

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
