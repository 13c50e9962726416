package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a Redis hash so several service instances
// can share them. Every operation is a single-key command.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

type sessionRecord struct {
	UserID    int64 `mapstructure:"user_id"`
	CreatedAt int64 `mapstructure:"created_at"`
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, id string) (int64, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return 0, false, err
	}
	if len(fields) == 0 {
		return 0, false, nil
	}

	var record sessionRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &record,
	})
	if err != nil {
		return 0, false, err
	}
	if err := decoder.Decode(fields); err != nil {
		return 0, false, fmt.Errorf("corrupt session record: %w", err)
	}
	if record.UserID == 0 {
		return 0, false, nil
	}

	return record.UserID, true, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, userID int64) error {
	return s.client.HSet(ctx, s.key(id), map[string]interface{}{
		fieldUserID:    userID,
		fieldCreatedAt: time.Now().Unix(),
	}).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
