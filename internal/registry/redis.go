package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"virtual-fit-backend/internal/models"
)

const (
	redisKeyPrefix = "scan:session:"

	// Entries live at most as long as the scan service's eviction
	// horizon, so redis drops what observation-driven eviction misses.
	redisSessionTTL = 24 * time.Hour
)

// Redis shares the registry across processes. Failures degrade to cache
// misses so store reads keep the API correct; they are logged, not
// surfaced.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, id string) (*models.ScanSession, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("registry: redis get %s failed: %v", id, err)
		}
		return nil, false
	}
	var session models.ScanSession
	if err := json.Unmarshal(raw, &session); err != nil {
		log.Printf("registry: decode session %s failed: %v", id, err)
		return nil, false
	}
	return &session, true
}

func (r *Redis) Put(ctx context.Context, session *models.ScanSession) {
	if session == nil {
		return
	}
	raw, err := json.Marshal(session)
	if err != nil {
		log.Printf("registry: encode session %s failed: %v", session.ID, err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+session.ID, raw, redisSessionTTL).Err(); err != nil {
		log.Printf("registry: redis set %s failed: %v", session.ID, err)
	}
}

func (r *Redis) Evict(ctx context.Context, id string) {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("registry: redis del %s failed: %v", id, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
