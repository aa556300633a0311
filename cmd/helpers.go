package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/cache"
	"github.com/ukidney/docchat/internal/config"
	"github.com/ukidney/docchat/internal/db"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/session"
	"github.com/ukidney/docchat/internal/upstream"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// deps is the shared dependency set behind every command: the upstream
// client, resolver, access guard and their backing stores.
type deps struct {
	cfg      *config.Config
	database *db.DB
	sessions *session.Store
	client   *upstream.Client
	resolver *resolver.Resolver
	guard    *access.Guard
}

// openDeps wires the dependency set from config. The caller owns the
// database handle and must Close it.
func openDeps(cfg *config.Config) (*deps, error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "docchat.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sessions := session.NewStore(cfg.DataDir)
	client := upstream.New(cfg.UpstreamURL, sessions, cfg.ChatTimeout)
	store := cache.NewStore(database, cfg.CacheVersion)

	return &deps{
		cfg:      cfg,
		database: database,
		sessions: sessions,
		client:   client,
		resolver: resolver.New(client, store, cfg.DocumentTTL, cfg.OwnerTTL),
		guard:    access.NewGuard(client, cfg.AccessFail),
	}, nil
}

// Close releases the dependency set.
func (d *deps) Close() error {
	return d.database.Close()
}
