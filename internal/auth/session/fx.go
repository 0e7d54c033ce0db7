package session

import (
	"github.com/redis/go-redis/v9"
	"github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/config"
	"go.uber.org/zap"
)

// ProvideStore picks redis when an address is configured, otherwise the
// in-process store.
func ProvideStore(cfg config.Config, log *zap.Logger) domain.Store {
	if cfg.RedisAddr == "" {
		log.Named("auth.session").Info("using in-memory session store")
		return NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	log.Named("auth.session").Info("using redis session store", zap.String("addr", cfg.RedisAddr))
	return NewRedisStore(client)
}
