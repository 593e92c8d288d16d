// Package factory constructs infrastructure dependencies from configuration.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/config"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/kv/memkv"
	"github.com/contentdesk/contentdesk/internal/kv/redisrest"
)

// NewStore builds the kv.Store selected by configuration.
func NewStore(cfg *config.Config, log zerolog.Logger) (kv.Store, error) {
	switch cfg.StoreDriver {
	case "redisrest":
		log.Info().Str("driver", "redisrest").Msg("using remote REST store")
		return redisrest.New(cfg.StoreURL, cfg.StoreToken, cfg.StoreTimeout()), nil
	case "memory":
		log.Warn().Str("driver", "memory").Msg("using in-process store; data will not survive restarts")
		return memkv.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}
