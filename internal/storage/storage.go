package storage

import (
	"context"
	"fmt"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/storage/embedded"
	"github.com/wonny/dart-digest/internal/storage/postgres"
	"github.com/wonny/dart-digest/pkg/config"
	"github.com/wonny/dart-digest/pkg/database"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Open returns the ledger selected by DIGEST_STORE
// ⭐ SSOT: 원장 구현 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.Ledger, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := postgres.New(db, log)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.WithField("max_conns", db.Stats().MaxConns).Info("Connected to postgres ledger")
		return store, nil
	case "badger", "":
		return embedded.Open(cfg.Store.Path, log)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}
