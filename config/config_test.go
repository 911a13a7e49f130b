package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret = strings.Repeat("a", 32)
	verifySecret = strings.Repeat("b", 32)
)

func base() *viper.Viper {
	v := viper.New()
	v.Set("jwt.access_secret", accessSecret)
	v.Set("jwt.verification_secret", verifySecret)

	return v
}

func TestDefaults(t *testing.T) {
	c, err := FromViper(base())
	require.NoError(t, err)

	assert.Equal(t, "development", c.App.Env)
	assert.False(t, c.Production())
	assert.Equal(t, 8080, c.Host.Port)
	assert.Equal(t, time.Hour, c.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, 24*time.Hour, c.JWT.VerificationTTL)
	assert.Equal(t, "bcrypt", c.Security.PasswordHasher)
	assert.Equal(t, "sqlite", c.Storage.Driver)
	assert.Equal(t, 5*time.Second, c.Storage.Timeout)
	assert.Equal(t, 10*time.Second, c.Mail.Timeout)
	assert.False(t, c.Mail.Enabled())
	assert.Equal(t, int64(15<<20), c.Upload.MaxSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HOST_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_ACCESS_TTL", "15m")

	c, err := FromViper(base())
	require.NoError(t, err)

	assert.True(t, c.Production())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Host.CORSOrigins)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL)
}

func TestValidation(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"short secret":      func(v *viper.Viper) { v.Set("jwt.access_secret", "short") },
		"same secrets":      func(v *viper.Viper) { v.Set("jwt.verification_secret", accessSecret) },
		"bad env":           func(v *viper.Viper) { v.Set("app.env", "staging") },
		"bad level":         func(v *viper.Viper) { v.Set("app.log_level", "loud") },
		"bad port":          func(v *viper.Viper) { v.Set("host.port", 0) },
		"bad hasher":        func(v *viper.Viper) { v.Set("security.password_hasher", "md5") },
		"bad driver":        func(v *viper.Viper) { v.Set("storage.driver", "redis") },
		"turnstile secret":  func(v *viper.Viper) { v.Set("security.turnstile_enabled", true) },
		"mail sender":       func(v *viper.Viper) { v.Set("mail.host", "smtp.example.com") },
		"assets bucket":     func(v *viper.Viper) { v.Set("assets.provider", "s3") },
		"bad provider":      func(v *viper.Viper) { v.Set("assets.provider", "gcs") },
		"upload size":       func(v *viper.Viper) { v.Set("upload.max_size", 0) },
		"mongo no database": func(v *viper.Viper) { v.Set("storage.driver", "mongo"); v.Set("storage.database", "") },
	}

	for name, mutate := range cases {
		v := base()
		mutate(v)

		_, err := FromViper(v)
		assert.Error(t, err, name)
	}
}

func TestR2NeedsAccount(t *testing.T) {
	v := base()
	v.Set("assets.provider", "r2")
	v.Set("assets.bucket", "images")
	v.Set("assets.access_key_id", "id")
	v.Set("assets.secret_access_key", "key")
	v.Set("assets.public_url", "https://cdn.example.com")

	_, err := FromViper(v)
	require.Error(t, err)

	v.Set("assets.account_id", "acc")
	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "r2", c.Assets.Provider)
}
