package repository

import (
	"context"
	"ctf_game_backend/internal/model"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateStore persists opaque progress blobs by key.
// A missing key is reported as ok=false with a nil error.
type StateStore interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, keys ...string) error
}

// MemoryStateStore keeps blobs in process memory. Used by tests and the memory backend.
type MemoryStateStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{data: make(map[string][]byte)}
}

func (s *MemoryStateStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStateStore) Write(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemoryStateStore) Clear(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// RedisStateStore stores each blob as a plain string value.
type RedisStateStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisStateStore(client *redis.Client, prefix string) *RedisStateStore {
	return &RedisStateStore{Client: client, Prefix: prefix}
}

func (s *RedisStateStore) key(k string) string {
	return s.Prefix + k
}

func (s *RedisStateStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisStateStore) Write(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, s.key(key), value, s.TTL).Err()
}

func (s *RedisStateStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.Client.Del(ctx, full...).Err()
}

// GormStateStore keeps blobs in the game_state_blobs table.
type GormStateStore struct {
	DB *gorm.DB
}

func NewGormStateStore(db *gorm.DB) *GormStateStore {
	return &GormStateStore{DB: db}
}

func (s *GormStateStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var blob model.StateBlob
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(blob.Value), true, nil
}

func (s *GormStateStore) Write(ctx context.Context, key string, value []byte) error {
	blob := model.StateBlob{Key: key, Value: string(value), UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&blob).Error
}

func (s *GormStateStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("`key` IN ?", keys).Delete(&model.StateBlob{}).Error
}
