// Package backend opens the store selected by STORAGE_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log"

	"hrdesk/internal/config"
	"hrdesk/internal/db"
	"hrdesk/internal/repository"
	"hrdesk/internal/store"
	"hrdesk/internal/store/jsonstore"
)

func Open(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connection failed: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db migration failed: %w", err)
		}
		log.Printf("storage: postgres")
		return repository.NewStore(db.NewStore(pool), cfg.DBQueryTimeout), nil
	case config.StorageFile:
		st, err := jsonstore.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Printf("storage: json files in %s", cfg.DataDir)
		return st, nil
	case config.StorageMemory:
		log.Printf("storage: memory, data is lost on exit")
		return jsonstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
