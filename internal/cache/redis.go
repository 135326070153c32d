package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// Key prefix for conversation memory snapshots
const memoryKeyPrefix = "voicepilot:memory:"

// MemoryTTL bounds how long a cached snapshot outlives its last write.
const MemoryTTL = 24 * time.Hour

// Connect creates a Redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// MemoryCache layers Redis over a persistent memory store. Reads consult
// the cache before the store, writes go to the store first and refresh
// the cached copy after. Redis failures degrade to the store alone.
type MemoryCache struct {
	client *redis.Client
	store  interfaces.MemoryStore
	logger *zap.Logger
	ttl    time.Duration
}

// NewMemoryCache creates a new memory cache around store. A nil client
// disables caching and every call goes straight to the store.
func NewMemoryCache(client *redis.Client, store interfaces.MemoryStore, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		client: client,
		store:  store,
		logger: logger,
		ttl:    MemoryTTL,
	}
}

// GetMemory retrieves the memory for a session.
func (c *MemoryCache) GetMemory(ctx context.Context, sessionID string) (*models.ConversationMemory, error) {
	if c.client != nil {
		data, err := c.client.Get(ctx, memoryKey(sessionID)).Bytes()
		if err == nil {
			memory := &models.ConversationMemory{}
			if unmarshalErr := json.Unmarshal(data, memory); unmarshalErr == nil {
				return memory, nil
			}
			c.logger.Warn("cached memory is corrupt, rereading from store",
				zap.String("session_id", sessionID))
		} else if err != redis.Nil {
			c.logger.Warn("memory cache read failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}

	memory, err := c.store.GetMemory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.refresh(ctx, sessionID, memory)
	return memory, nil
}

// SaveMemory persists the memory and refreshes the cached copy. The
// store is the source of truth, so a store failure is returned and a
// cache failure is only logged.
func (c *MemoryCache) SaveMemory(ctx context.Context, sessionID string, memory *models.ConversationMemory) error {
	if err := c.store.SaveMemory(ctx, sessionID, memory); err != nil {
		return err
	}
	if memory == nil {
		memory = models.DefaultMemory()
	}
	c.refresh(ctx, sessionID, memory)
	return nil
}

// Invalidate drops the cached snapshot for a session.
func (c *MemoryCache) Invalidate(ctx context.Context, sessionID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, memoryKey(sessionID)).Err(); err != nil {
		c.logger.Warn("memory cache invalidation failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (c *MemoryCache) refresh(ctx context.Context, sessionID string, memory *models.ConversationMemory) {
	if c.client == nil || memory == nil {
		return
	}
	data, err := json.Marshal(memory)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, memoryKey(sessionID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("memory cache write failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func memoryKey(sessionID string) string {
	return memoryKeyPrefix + sessionID
}

// Ensure MemoryCache implements MemoryStore interface
var _ interfaces.MemoryStore = (*MemoryCache)(nil)
