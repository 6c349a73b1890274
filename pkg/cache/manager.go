package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL is how long a token name stays cached unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// Config holds the cache manager configuration.
type Config struct {
	// Namespace separates entries of different chains.
	Namespace string

	// TTL applied by SetName and TouchName.
	TTL time.Duration
}

// DefaultConfig returns a configuration for the given namespace.
func DefaultConfig(namespace string) Config {
	return Config{
		Namespace: namespace,
		TTL:       DefaultTTL,
	}
}

// Manager handles token name caching with Redis backend.
type Manager struct {
	redis  *redis.Client
	config Config
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client, cfg Config) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		redis:  redisClient,
		config: cfg,
	}
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key NameKey) (*NameEntry, error) {
	cacheKey := key.String()

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry NameEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	return &entry, nil
}

// Set stores a cache entry with TTL based on the entry's Expires field.
func (m *Manager) Set(ctx context.Context, key NameKey, entry *NameEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		// Already expired, don't cache
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.Add(float64(len(data)))
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key NameKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// UpdateTTL extends an existing entry to newExpires.
func (m *Manager) UpdateTTL(ctx context.Context, key NameKey, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	entry.Expires = newExpires
	return m.Set(ctx, key, entry)
}

// GetName returns the cached name of token in the manager's namespace.
func (m *Manager) GetName(ctx context.Context, token common.Address) (string, error) {
	entry, err := m.Get(ctx, m.key(token))
	if err != nil {
		return "", err
	}
	return entry.Name, nil
}

// SetName caches name for token using the configured TTL.
func (m *Manager) SetName(ctx context.Context, token common.Address, name string) error {
	now := time.Now()
	return m.Set(ctx, m.key(token), &NameEntry{
		Name:     name,
		Expires:  now.Add(m.config.TTL),
		CachedAt: now,
	})
}

// TouchName pushes the expiry of token's cached name to a full TTL from now.
// Names that are read often stay cached.
func (m *Manager) TouchName(ctx context.Context, token common.Address) error {
	return m.UpdateTTL(ctx, m.key(token), time.Now().Add(m.config.TTL))
}

func (m *Manager) key(token common.Address) NameKey {
	return NameKey{Namespace: m.config.Namespace, Token: token}
}
