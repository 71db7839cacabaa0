// Package cache keeps the last good import result per spreadsheet, so a run whose
// every tab fails can still answer with data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/models"
)

// ResultCache stores ImportResults by spreadsheet id. Get returns nil, nil on a miss.
type ResultCache interface {
	Get(ctx context.Context, spreadsheetID string) (*models.ImportResult, error)
	Set(ctx context.Context, spreadsheetID string, result *models.ImportResult) error
	Clear(ctx context.Context) error
}

// New selects the cache backend from configuration
func New(cfg config.CacheConfig) (ResultCache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		return NewRedis(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Memory is an in-process ResultCache
type Memory struct {
	mu      sync.RWMutex
	results map[string]*models.ImportResult
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{results: make(map[string]*models.ImportResult)}
}

// Get implements ResultCache
func (m *Memory) Get(ctx context.Context, spreadsheetID string) (*models.ImportResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.results[spreadsheetID], nil
}

// Set implements ResultCache
func (m *Memory) Set(ctx context.Context, spreadsheetID string, result *models.ImportResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[spreadsheetID] = result
	return nil
}

// Clear implements ResultCache
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]*models.ImportResult)
	return nil
}

const keyPrefix = "recruitops:import:"

// Redis is a ResultCache shared between API instances
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps a go-redis client. A zero ttl keeps entries forever.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get implements ResultCache
func (r *Redis) Get(ctx context.Context, spreadsheetID string) (*models.ImportResult, error) {
	data, err := r.client.Get(ctx, keyPrefix+spreadsheetID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result models.ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt cached result: %w", err)
	}
	return &result, nil
}

// Set implements ResultCache
func (r *Redis) Set(ctx context.Context, spreadsheetID string, result *models.ImportResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, keyPrefix+spreadsheetID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Clear implements ResultCache
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
