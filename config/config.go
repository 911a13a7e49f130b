// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile = pflag.String("config", "", "Path to a config file, config.toml in the working directory is used by default")

	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs       = []string{"development", "production"}
	validDrivers    = []string{"sqlite", "postgres", "mongo", "memory"}
	validProviders  = []string{"", "s3", "r2"}
	validPwHashers  = []string{"bcrypt", "argon2id"}
	minSecretLength = 32
)

type AppConfig struct {
	Env      string
	LogLevel string
}

type HostConfig struct {
	Port        int
	CORSOrigins []string
	ClientURL   string
}

type JWTConfig struct {
	AccessSecret       string
	VerificationSecret string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	VerificationTTL    time.Duration
}

type SecurityConfig struct {
	PasswordHasher   string
	RateLimit        float64
	TurnstileEnabled bool
	TurnstileSecret  string
}

type StorageConfig struct {
	Driver         string
	DSN            string
	Database       string
	Timeout        time.Duration
	ConnectRetries int
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	Timeout  time.Duration
}

// Enabled reports whether an SMTP server was configured. Without one mail is
// only logged.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

type AssetsConfig struct {
	Provider        string
	Bucket          string
	PublicURL       string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	AccountID       string
	Timeout         time.Duration
}

type UploadConfig struct {
	// In bytes
	MaxSize int64
}

type Config struct {
	App      AppConfig
	Host     HostConfig
	JWT      JWTConfig
	Security SecurityConfig
	Storage  StorageConfig
	Mail     MailConfig
	Assets   AssetsConfig
	Upload   UploadConfig
}

func (c *Config) Production() bool {
	return c.App.Env == "production"
}

// Load prepares everything config-related so that the app can
// start working. A .env file and config.toml are both optional,
// environment variables override anything found in them. Load
// returns an error if something is critically wrong and the
// application can't run because of that.
func Load() (*Config, error) {
	if !pflag.Parsed() {
		pflag.Parse()
	}

	// Missing .env files are fine
	_ = godotenv.Load()

	v := viper.New()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind flags, %w", err)
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return FromViper(v)
}

// FromViper applies env bindings and defaults to v and builds a validated
// Config out of it
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// ENVS
	//
	for _, key := range []string{
		"app.env", "app.log_level",
		"host.port", "host.cors_origins", "host.client_url",
		"jwt.access_secret", "jwt.verification_secret",
		"jwt.access_ttl", "jwt.refresh_ttl", "jwt.verification_ttl",
		"security.password_hasher", "security.rate_limit",
		"security.turnstile_enabled", "security.turnstile_secret",
		"storage.driver", "storage.dsn", "storage.database",
		"storage.timeout", "storage.connect_retries",
		"mail.host", "mail.port", "mail.username", "mail.password",
		"mail.sender", "mail.timeout",
		"assets.provider", "assets.bucket", "assets.public_url", "assets.region",
		"assets.access_key_id", "assets.secret_access_key", "assets.account_id",
		"assets.timeout",
		"upload.max_size",
	} {
		if err := v.BindEnv(key, strings.ReplaceAll(key, ".", "_")); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s, %w", key, err)
		}
	}

	//
	// Defaults
	//
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("host.client_url", "http://localhost:5173")

	v.SetDefault("jwt.access_ttl", time.Hour)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.verification_ttl", 24*time.Hour)

	v.SetDefault("security.password_hasher", "bcrypt")
	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.turnstile_enabled", false)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "database.db")
	v.SetDefault("storage.database", "readstack")
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("storage.connect_retries", 5)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("assets.region", "auto")
	v.SetDefault("assets.timeout", 30*time.Second)

	// MiB
	v.SetDefault("upload.max_size", 15)

	c := &Config{
		App: AppConfig{
			Env:      v.GetString("app.env"),
			LogLevel: v.GetString("app.log_level"),
		},
		Host: HostConfig{
			Port:        v.GetInt("host.port"),
			CORSOrigins: splitList(v.GetStringSlice("host.cors_origins")),
			ClientURL:   strings.TrimRight(v.GetString("host.client_url"), "/"),
		},
		JWT: JWTConfig{
			AccessSecret:       v.GetString("jwt.access_secret"),
			VerificationSecret: v.GetString("jwt.verification_secret"),
			AccessTTL:          v.GetDuration("jwt.access_ttl"),
			RefreshTTL:         v.GetDuration("jwt.refresh_ttl"),
			VerificationTTL:    v.GetDuration("jwt.verification_ttl"),
		},
		Security: SecurityConfig{
			PasswordHasher:   v.GetString("security.password_hasher"),
			RateLimit:        v.GetFloat64("security.rate_limit"),
			TurnstileEnabled: v.GetBool("security.turnstile_enabled"),
			TurnstileSecret:  v.GetString("security.turnstile_secret"),
		},
		Storage: StorageConfig{
			Driver:         v.GetString("storage.driver"),
			DSN:            v.GetString("storage.dsn"),
			Database:       v.GetString("storage.database"),
			Timeout:        v.GetDuration("storage.timeout"),
			ConnectRetries: v.GetInt("storage.connect_retries"),
		},
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			Sender:   v.GetString("mail.sender"),
			Timeout:  v.GetDuration("mail.timeout"),
		},
		Assets: AssetsConfig{
			Provider:        v.GetString("assets.provider"),
			Bucket:          v.GetString("assets.bucket"),
			PublicURL:       v.GetString("assets.public_url"),
			Region:          v.GetString("assets.region"),
			AccessKeyID:     v.GetString("assets.access_key_id"),
			SecretAccessKey: v.GetString("assets.secret_access_key"),
			AccountID:       v.GetString("assets.account_id"),
			Timeout:         v.GetDuration("assets.timeout"),
		},
		Upload: UploadConfig{
			MaxSize: v.GetInt64("upload.max_size") << 20,
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validEnvs, c.App.Env) {
		return errors.New("app.env must be development or production")
	}

	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}

	if len(c.Host.CORSOrigins) == 0 {
		return errors.New("host.cors_origins can't be empty")
	}

	if c.Host.ClientURL == "" {
		return errors.New("host.client_url can't be empty")
	}

	if len(c.JWT.AccessSecret) < minSecretLength {
		return fmt.Errorf("jwt.access_secret must be at least %d characters long", minSecretLength)
	}

	if len(c.JWT.VerificationSecret) < minSecretLength {
		return fmt.Errorf("jwt.verification_secret must be at least %d characters long", minSecretLength)
	}

	if c.JWT.AccessSecret == c.JWT.VerificationSecret {
		return errors.New("jwt.access_secret and jwt.verification_secret must differ")
	}

	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 || c.JWT.VerificationTTL <= 0 {
		return errors.New("token lifetimes must be bigger than 0")
	}

	if !slices.Contains(validPwHashers, c.Security.PasswordHasher) {
		return errors.New("security.password_hasher must be bcrypt or argon2id")
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.Security.TurnstileEnabled && c.Security.TurnstileSecret == "" {
		return errors.New("turnstile secret token is missing")
	}

	if !slices.Contains(validDrivers, c.Storage.Driver) {
		return errors.New("invalid storage driver provided")
	}

	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return errors.New("storage.dsn can't be empty")
	}

	if c.Storage.Driver == "mongo" && c.Storage.Database == "" {
		return errors.New("storage.database can't be empty")
	}

	if c.Storage.Timeout <= 0 {
		return errors.New("storage.timeout must be bigger than 0")
	}

	if c.Storage.ConnectRetries < 0 {
		return errors.New("storage.connect_retries can't be negative")
	}

	if c.Mail.Enabled() && c.Mail.Sender == "" {
		return errors.New("mail.sender can't be empty")
	}

	if !slices.Contains(validProviders, c.Assets.Provider) {
		return errors.New("assets.provider must be s3 or r2")
	}

	if c.Assets.Provider != "" {
		if c.Assets.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		if c.Assets.AccessKeyID == "" {
			return errors.New("account access id can't be empty")
		}
		if c.Assets.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
		if c.Assets.PublicURL == "" {
			return errors.New("assets.public_url can't be empty")
		}
	}

	if c.Assets.Provider == "r2" && c.Assets.AccountID == "" {
		return errors.New("account id can't be empty")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	return nil
}

// splitList accepts both real lists and a single comma separated value as
// found in environment variables
func splitList(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
