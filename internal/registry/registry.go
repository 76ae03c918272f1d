// Package registry is the in-process fast path for scan session reads: a
// cache in front of the store, injected into the scan service rather than
// held in a package-level singleton. The store stays authoritative; a
// registry miss is never an error.
package registry

import (
	"context"
	"fmt"

	"virtual-fit-backend/internal/config"
	"virtual-fit-backend/internal/models"
)

type Registry interface {
	Get(ctx context.Context, id string) (*models.ScanSession, bool)
	Put(ctx context.Context, session *models.ScanSession)
	Evict(ctx context.Context, id string)
}

// Open builds the registry selected by REGISTRY_DRIVER.
func Open(cfg *config.Config) (Registry, error) {
	switch cfg.RegistryDriver {
	case "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.RegistryDriver)
	}
}
