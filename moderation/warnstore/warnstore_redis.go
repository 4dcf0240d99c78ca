package warnstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var warnKeyPrefix = "warnings/"

type RedisWarnStore struct {
	Client *redis.Client
}

func NewRedisWarnStore(redisURL string) (*RedisWarnStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisWarnStore{Client: rdb}, nil
}

func warnKey(userID int64) string {
	return fmt.Sprintf("%s%d", warnKeyPrefix, userID)
}

func (s *RedisWarnStore) Add(ctx context.Context, userID int64) (int, error) {
	n, err := s.Client.Incr(ctx, warnKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *RedisWarnStore) Count(ctx context.Context, userID int64) (int, error) {
	n, err := s.Client.Get(ctx, warnKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisWarnStore) Reset(ctx context.Context, userID int64) error {
	return s.Client.Del(ctx, warnKey(userID)).Err()
}
