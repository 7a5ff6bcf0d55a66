package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/friends-room/internal/types"
	"github.com/redis/go-redis/v9"
)

type RedisTranscriptRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisTranscriptRepository connects to the Redis server at addr. Each
// room's transcript is stored under "<prefix><room>:messages".
func NewRedisTranscriptRepository(addr, prefix string) (*RedisTranscriptRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisTranscriptRepository{client: client, prefix: prefix}, nil
}

func (db *RedisTranscriptRepository) key(room string) string {
	return db.prefix + room + ":messages"
}

func (db *RedisTranscriptRepository) Ping(ctx context.Context) error {
	return db.client.Ping(ctx).Err()
}

func (db *RedisTranscriptRepository) LoadTranscript(ctx context.Context, room string) ([]types.Message, error) {
	data, err := db.client.Get(ctx, db.key(room)).Bytes()
	if errors.Is(err, redis.Nil) {
		return make([]types.Message, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeTranscript(data)
}

func (db *RedisTranscriptRepository) SaveTranscript(ctx context.Context, room string, msgs []types.Message) error {
	data, err := encodeTranscript(msgs)
	if err != nil {
		return err
	}

	if err := db.client.Set(ctx, db.key(room), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (db *RedisTranscriptRepository) Close() error {
	return db.client.Close()
}
