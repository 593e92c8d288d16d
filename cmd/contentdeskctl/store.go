package main

import (
	"github.com/contentdesk/contentdesk/internal/config"
	"github.com/contentdesk/contentdesk/internal/factory"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/logger"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// openStore connects straight to the configured store, bypassing the HTTP
// API. Maintenance commands only.
func openStore() (kv.Store, keys.Scheme, error) {
	log := logger.New("contentdeskctl")

	cfg, err := config.New()
	if err != nil {
		return nil, keys.Scheme{}, err
	}
	st, err := factory.NewStore(cfg, log)
	if err != nil {
		return nil, keys.Scheme{}, err
	}
	return st, keys.NewScheme(cfg.KeyNamespace), nil
}

func openRepositories() (*repository.Repositories, error) {
	st, scheme, err := openStore()
	if err != nil {
		return nil, err
	}
	return repository.New(st, scheme, logger.New("contentdeskctl")), nil
}
