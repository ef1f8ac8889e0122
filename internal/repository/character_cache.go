package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/pkg/logger"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CharacterCache keeps recently resolved characters. Misses and backend
// failures both read as "not cached".
type CharacterCache interface {
	Get(ctx context.Context, id uint) (*models.Character, bool)
	Set(ctx context.Context, character *models.Character)
	Delete(ctx context.Context, id uint)
}

func characterKey(id uint) string {
	return "character:" + strconv.FormatUint(uint64(id), 10)
}

// MemoryCharacterCache is an in-process cache with per-entry expiry
type MemoryCharacterCache struct {
	items *cache.Cache
}

// NewMemoryCharacterCache creates a cache that expires entries after ttl and
// sweeps expired entries every purge
func NewMemoryCharacterCache(ttl, purge time.Duration) *MemoryCharacterCache {
	return &MemoryCharacterCache{items: cache.New(ttl, purge)}
}

func (m *MemoryCharacterCache) Get(_ context.Context, id uint) (*models.Character, bool) {
	v, ok := m.items.Get(characterKey(id))
	if !ok {
		return nil, false
	}
	c := v.(models.Character)
	return &c, true
}

func (m *MemoryCharacterCache) Set(_ context.Context, character *models.Character) {
	// stored by value so callers can't mutate the cached copy
	m.items.SetDefault(characterKey(character.ID), *character)
}

func (m *MemoryCharacterCache) Delete(_ context.Context, id uint) {
	m.items.Delete(characterKey(id))
}

// RedisCharacterCache shares cached characters across replicas
type RedisCharacterCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisCharacterCache connects to the redis instance at url, which may be a
// redis:// URL or a bare host:port
func NewRedisCharacterCache(url string, ttl time.Duration, log *logger.Logger) (*RedisCharacterCache, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	return &RedisCharacterCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: log,
	}, nil
}

// Ping checks the redis connection
func (r *RedisCharacterCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client
func (r *RedisCharacterCache) Close() error {
	return r.client.Close()
}

func (r *RedisCharacterCache) Get(ctx context.Context, id uint) (*models.Character, bool) {
	raw, err := r.client.Get(ctx, characterKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("Character cache read failed", "character_id", id, "error", err.Error())
		}
		return nil, false
	}

	var c models.Character
	if err := json.Unmarshal(raw, &c); err != nil {
		r.logger.Warn("Dropping undecodable cached character", "character_id", id, "error", err.Error())
		r.Delete(ctx, id)
		return nil, false
	}
	return &c, true
}

func (r *RedisCharacterCache) Set(ctx context.Context, character *models.Character) {
	raw, err := json.Marshal(character)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, characterKey(character.ID), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("Character cache write failed", "character_id", character.ID, "error", err.Error())
	}
}

func (r *RedisCharacterCache) Delete(ctx context.Context, id uint) {
	if err := r.client.Del(ctx, characterKey(id)).Err(); err != nil {
		r.logger.Warn("Character cache delete failed", "character_id", id, "error", err.Error())
	}
}
