package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/bearer/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "HS256", cfg.Algorithm)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL())
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "auth.db", cfg.Store.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, "prod", cfg.Env)

	require.Empty(t, cfg.TrustedProxies)

	limits := cfg.RateLimit.Limits()
	require.Equal(t, httpx.StrictLimit, limits.Login)
	require.Equal(t, httpx.AccountLimit, limits.Account)
	require.Equal(t, httpx.ModerateLimit, limits.Session)
	require.Equal(t, httpx.PublicLimit, limits.Public)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("ALGORITHM", "EdDSA")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://auth@localhost/auth")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "1000")
	t.Setenv("RATELIMIT_STRICT_BURST", "1000")
	t.Setenv("RATELIMIT_PUBLIC_REQUESTS", "-1")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	require.Equal(t, "EdDSA", cfg.Algorithm)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL())
	require.Equal(t, DriverPostgres, cfg.Store.Driver)
	require.Equal(t, httpx.Limit{Requests: 1000, Window: time.Minute, Burst: 1000}, cfg.RateLimit.Limits().Login)
	require.False(t, cfg.RateLimit.Limits().Public.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
secret_key: from-the-file-0123456789abcdef0123
algorithm: HS512
token_issuer: bearer
store:
  driver: memory
rate_limit:
  strict_requests: 1000
  strict_burst: 50
`), 0o600))

	// The environment wins over the file.
	t.Setenv("ALGORITHM", "HS384")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-the-file-0123456789abcdef0123", cfg.SecretKey)
	require.Equal(t, "HS384", cfg.Algorithm)
	require.Equal(t, "bearer", cfg.Issuer)
	require.Equal(t, DriverMemory, cfg.Store.Driver)
	require.Equal(t, httpx.Limit{Requests: 1000, Window: time.Minute, Burst: 50}, cfg.RateLimit.Limits().Login)
}

func TestLoadConfigRejectsZeroRateLimit(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "0")

	_, err := LoadConfig("")
	require.ErrorContains(t, err, "RATELIMIT_STRICT_REQUESTS must not be zero")
}

func TestLoadConfigRejectsBadTrustedProxy(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,proxy.internal")

	_, err := LoadConfig("")
	require.ErrorContains(t, err, "TRUSTED_PROXIES")
}

func TestValidate(t *testing.T) {
	valid := Config{
		SecretKey:             "s",
		Algorithm:             "HS256",
		AccessTokenTTLMinutes: 30,
		Store:                 StoreConfig{Driver: DriverSQLite, DatabaseFile: "auth.db"},
		Env:                   "prod",
		Port:                  8080,
		RateLimit: RateLimitConfig{
			StrictRequests: 5, StrictWindowSec: 60, StrictBurst: 5,
			AccountRequests: 20, AccountWindowSec: 600, AccountBurst: 10,
			ModerateRequests: 60, ModerateWindowSec: 60, ModerateBurst: 20,
			PublicRequests: -1, PublicWindowSec: -1, PublicBurst: -1,
		},
	}
	require.NoError(t, valid.Validate())

	dev := valid
	dev.SecretKey = ""
	dev.Env = EnvDev
	require.NoError(t, dev.Validate())

	for name, mutate := range map[string]func(*Config){
		"missing secret":   func(c *Config) { c.SecretKey = "" },
		"bad algorithm":    func(c *Config) { c.Algorithm = "none" },
		"zero ttl":         func(c *Config) { c.AccessTokenTTLMinutes = 0 },
		"negative leeway":  func(c *Config) { c.TokenLeeway = -time.Second },
		"unknown driver":   func(c *Config) { c.Store.Driver = "mongo" },
		"postgres w/o url": func(c *Config) { c.Store.Driver = DriverPostgres },
		"sqlite w/o file":  func(c *Config) { c.Store.DatabaseFile = "" },
		"port":             func(c *Config) { c.Port = 70000 },
		"zero burst":       func(c *Config) { c.RateLimit.AccountBurst = 0 },
		"trusted proxy":    func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/99"} },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
