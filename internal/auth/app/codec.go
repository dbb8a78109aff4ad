package app

import (
	"log/slog"

	"github.com/aussiebroadwan/bearer/pkg/cryptox"
	"github.com/aussiebroadwan/bearer/pkg/jwtx"
)

// InitCodec builds the token codec from SECRET_KEY and ALGORITHM.
//
// In the dev environment a missing secret is replaced by a random one. Tokens
// minted with it stop verifying when the process restarts.
func InitCodec(cfg Config, logger *slog.Logger) (*jwtx.Codec, error) {
	secret := cfg.SecretKey
	if secret == "" && cfg.Env == EnvDev {
		secret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		logger.Warn("SECRET_KEY not set, using a random secret for this process")
	}

	codec, err := jwtx.NewCodec(jwtx.CodecOptions{
		Algorithm: cfg.Algorithm,
		Secret:    []byte(secret),
		Issuer:    cfg.Issuer,
		TTL:       cfg.AccessTTL(),
		Leeway:    cfg.TokenLeeway,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("token codec ready",
		slog.String("algorithm", codec.Algorithm()),
		slog.Duration("ttl", codec.DefaultTTL()),
		slog.String("issuer", cfg.Issuer),
	)
	return codec, nil
}
