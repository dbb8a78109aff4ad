package app

import (
	"errors"
	"fmt"
	"slices"
	"time"

	authhttp "github.com/aussiebroadwan/bearer/internal/auth/http"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
	"github.com/ilyakaznacheev/cleanenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// EnvDev relaxes SECRET_KEY: a random one is generated when it is missing.
const EnvDev = "dev"

var supportedAlgorithms = []string{"HS256", "HS384", "HS512", "EdDSA"}

// Config is read from an optional YAML file and then from the environment,
// which wins over the file.
type Config struct {
	SecretKey             string        `yaml:"secret_key" env:"SECRET_KEY" env-description:"token signing secret, at least 32 bytes"`
	Algorithm             string        `yaml:"algorithm" env:"ALGORITHM" env-default:"HS256" env-description:"HS256, HS384, HS512 or EdDSA"`
	AccessTokenTTLMinutes int           `yaml:"access_token_ttl_minutes" env:"ACCESS_TOKEN_TTL_MINUTES" env-default:"30"`
	Issuer                string        `yaml:"token_issuer" env:"TOKEN_ISSUER" env-description:"iss claim; required on decode when set"`
	TokenLeeway           time.Duration `yaml:"token_leeway" env:"TOKEN_LEEWAY" env-default:"0s"`

	Store StoreConfig `yaml:"store"`

	SeedFile   string `yaml:"seed_file" env:"SEED_FILE" env-description:"YAML users to create at start up"`
	PepperFile string `yaml:"pepper_file" env:"PEPPER_FILE" env-description:"password pepper, generated when the file is missing"`

	Env                 string        `yaml:"env" env:"ENV" env-default:"prod"`
	LogLevel            string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat           string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	Port                int           `yaml:"port" env:"PORT" env-default:"8080"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`

	TrustedProxies []string        `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:"," env-description:"addresses or CIDR ranges allowed to set X-Forwarded-For"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type StoreConfig struct {
	Driver       string `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	DatabaseFile string `yaml:"database_file" env:"DATABASE_FILE" env-default:"auth.db"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL" env-description:"postgres connection string"`
}

// RateLimitConfig overrides the strict (login per client), account (login
// per username), moderate (session) and public profiles. Unset fields take
// the defaults. A negative value disables the profile; zero is rejected by
// Validate since cleanenv cannot tell it apart from unset in YAML.
type RateLimitConfig struct {
	StrictRequests    int `yaml:"strict_requests" env:"RATELIMIT_STRICT_REQUESTS" env-default:"5"`
	StrictWindowSec   int `yaml:"strict_window_sec" env:"RATELIMIT_STRICT_WINDOW_SEC" env-default:"60"`
	StrictBurst       int `yaml:"strict_burst" env:"RATELIMIT_STRICT_BURST" env-default:"5"`
	AccountRequests   int `yaml:"account_requests" env:"RATELIMIT_ACCOUNT_REQUESTS" env-default:"20"`
	AccountWindowSec  int `yaml:"account_window_sec" env:"RATELIMIT_ACCOUNT_WINDOW_SEC" env-default:"600"`
	AccountBurst      int `yaml:"account_burst" env:"RATELIMIT_ACCOUNT_BURST" env-default:"10"`
	ModerateRequests  int `yaml:"moderate_requests" env:"RATELIMIT_MODERATE_REQUESTS" env-default:"60"`
	ModerateWindowSec int `yaml:"moderate_window_sec" env:"RATELIMIT_MODERATE_WINDOW_SEC" env-default:"60"`
	ModerateBurst     int `yaml:"moderate_burst" env:"RATELIMIT_MODERATE_BURST" env-default:"20"`
	PublicRequests    int `yaml:"public_requests" env:"RATELIMIT_PUBLIC_REQUESTS" env-default:"1000"`
	PublicWindowSec   int `yaml:"public_window_sec" env:"RATELIMIT_PUBLIC_WINDOW_SEC" env-default:"60"`
	PublicBurst       int `yaml:"public_burst" env:"RATELIMIT_PUBLIC_BURST" env-default:"100"`
}

// Limits converts the profiles for the router.
func (c RateLimitConfig) Limits() authhttp.Limits {
	limit := func(requests, windowSec, burst int) httpx.Limit {
		return httpx.Limit{Requests: requests, Window: time.Duration(windowSec) * time.Second, Burst: burst}
	}
	return authhttp.Limits{
		Login:   limit(c.StrictRequests, c.StrictWindowSec, c.StrictBurst),
		Account: limit(c.AccountRequests, c.AccountWindowSec, c.AccountBurst),
		Session: limit(c.ModerateRequests, c.ModerateWindowSec, c.ModerateBurst),
		Public:  limit(c.PublicRequests, c.PublicWindowSec, c.PublicBurst),
	}
}

// AccessTTL is the configured token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// LoadConfig reads path when it is not empty, then the environment.
func LoadConfig(path string) (Config, error) {
	var (
		cfg Config
		err error
	)
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.SecretKey == "" && c.Env != EnvDev {
		errs = append(errs, errors.New("SECRET_KEY is required outside the dev environment"))
	}
	if !slices.Contains(supportedAlgorithms, c.Algorithm) {
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not one of %v", c.Algorithm, supportedAlgorithms))
	}
	if c.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", c.AccessTokenTTLMinutes))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("TOKEN_LEEWAY must not be negative"))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of sqlite, postgres, memory", c.Store.Driver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	errs = append(errs, c.RateLimit.validate()...)

	return errors.Join(errs...)
}

func (c RateLimitConfig) validate() []error {
	var errs []error
	for _, f := range []struct {
		env   string
		value int
	}{
		{"RATELIMIT_STRICT_REQUESTS", c.StrictRequests},
		{"RATELIMIT_STRICT_WINDOW_SEC", c.StrictWindowSec},
		{"RATELIMIT_STRICT_BURST", c.StrictBurst},
		{"RATELIMIT_ACCOUNT_REQUESTS", c.AccountRequests},
		{"RATELIMIT_ACCOUNT_WINDOW_SEC", c.AccountWindowSec},
		{"RATELIMIT_ACCOUNT_BURST", c.AccountBurst},
		{"RATELIMIT_MODERATE_REQUESTS", c.ModerateRequests},
		{"RATELIMIT_MODERATE_WINDOW_SEC", c.ModerateWindowSec},
		{"RATELIMIT_MODERATE_BURST", c.ModerateBurst},
		{"RATELIMIT_PUBLIC_REQUESTS", c.PublicRequests},
		{"RATELIMIT_PUBLIC_WINDOW_SEC", c.PublicWindowSec},
		{"RATELIMIT_PUBLIC_BURST", c.PublicBurst},
	} {
		if f.value == 0 {
			errs = append(errs, fmt.Errorf("%s must not be zero; use a negative value to disable the profile", f.env))
		}
	}
	return errs
}
