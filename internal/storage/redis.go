package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const userKeyPrefix = "user:"

// RedisBackend хранит каждую запись пользователя JSON-строкой под ключом user:<id>.
// SET атомарен, поэтому запись одного пользователя никогда не бывает частичной.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend инициализирует подключение к Redis
func NewRedisBackend(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return NewRedisBackendFromClient(client), nil
}

// NewRedisBackendFromClient использует уже созданный клиент
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

// Get получает запись пользователя из Redis
func (b *RedisBackend) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	data, err := b.client.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec models.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", userKey(userID), err)
	}
	return &rec, nil
}

// Put сохраняет запись пользователя в Redis
func (b *RedisBackend) Put(ctx context.Context, rec *models.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, userKey(rec.UserID), data, 0).Err()
}

// List получает все записи пользователей из Redis
func (b *RedisBackend) List(ctx context.Context) ([]*models.UserRecord, error) {
	var records []*models.UserRecord

	iter := b.client.Scan(ctx, 0, userKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		userID := iter.Val()[len(userKeyPrefix):]
		rec, err := b.Get(ctx, userID)
		if errors.Is(err, models.ErrUserNotFound) {
			continue // ключ удален между SCAN и GET
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

// Close закрывает клиент Redis
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
