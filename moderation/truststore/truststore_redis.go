package truststore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var trustKeyPrefix = "trust/"
var trustChatsKeyPrefix = "trustchats/"

type RedisTrustStore struct {
	Client *redis.Client
}

func NewRedisTrustStore(redisURL string) (*RedisTrustStore, error) {
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
	return &RedisTrustStore{Client: rdb}, nil
}

func userKey(userID int64) string {
	return fmt.Sprintf("%s%d", trustKeyPrefix, userID)
}

func chatSetKey(userID int64) string {
	return fmt.Sprintf("%s%d", trustChatsKeyPrefix, userID)
}

func (s *RedisTrustStore) IsTrusted(ctx context.Context, userID int64) (bool, error) {
	_, err := s.Client.Get(ctx, userKey(userID)).Result()
	if err == nil {
		return true, nil
	}
	if err != redis.Nil {
		return false, err
	}
	n, err := s.Client.SCard(ctx, chatSetKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisTrustStore) SetTrusted(ctx context.Context, userID int64, trusted bool) error {
	if trusted {
		return s.Client.Set(ctx, userKey(userID), "1", 0).Err()
	}
	return s.Client.Del(ctx, userKey(userID)).Err()
}

func (s *RedisTrustStore) SetTrustedInChat(ctx context.Context, userID, chatID int64) error {
	return s.Client.SAdd(ctx, chatSetKey(userID), chatID).Err()
}

func (s *RedisTrustStore) ExpireTrustsForUser(ctx context.Context, userID int64, chatID *int64) error {
	if chatID != nil {
		return s.Client.SRem(ctx, chatSetKey(userID), *chatID).Err()
	}
	// single round-trip for both keys
	multi := s.Client.Pipeline()
	multi.Del(ctx, userKey(userID))
	multi.Del(ctx, chatSetKey(userID))
	_, err := multi.Exec(ctx)
	return err
}
