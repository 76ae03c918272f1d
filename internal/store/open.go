package store

import (
	"fmt"

	"virtual-fit-backend/internal/config"
)

// Open builds the backend selected by STORE_DRIVER. The postgres driver
// also runs pending migrations so the documents schema always exists.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.StoreDriver {
	case "memory":
		return NewMemoryBackend(cfg.StorePath)
	case "postgres":
		b, err := NewPostgresBackend(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return b, nil
	case "mongo":
		return NewMongoBackend(cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
