package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"VPNLogSift/internal/config"
)

const redisTimeout = 5 * time.Second

// RedisStore хранит отметки в хэше Redis: поле — путь, значение — JSON отметки.
// Отметки переживают перезапуск; блокировок между экземплярами watch нет.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}
	return &RedisStore{client: rdb, key: cfg.Key}, nil
}

func (r *RedisStore) Load() (map[string]Processed, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	processed := make(map[string]Processed, len(fields))
	for path, raw := range fields {
		var p Processed
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		processed[path] = p
	}
	return processed, nil
}

func (r *RedisStore) Save(data map[string]Processed) error {
	if len(data) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(data))
	for path, p := range data {
		bs, err := json.Marshal(p)
		if err != nil {
			return err
		}
		values[path] = string(bs)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return r.client.HSet(ctx, r.key, values).Err()
}

// Close закрывает соединение с Redis
func (r *RedisStore) Close() error {
	return r.client.Close()
}
