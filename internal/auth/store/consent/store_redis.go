package consent

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "guardian/pkg/domain"
)

// RedisStore keeps each grant as a set at
// {prefix}:{tenant}:consent:{client}:{user}.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "guardian"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(tenantID id.TenantID, clientID id.ClientID, userID id.UserID) string {
	return s.prefix + ":" + tenantID.String() + ":consent:" + clientID.String() + ":" + userID.String()
}

func (s *RedisStore) Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key(tenantID, clientID, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load consent: %w", err)
	}
	return normalize(members), nil
}

// Put swaps the set in one MULTI so readers never see a partial grant.
func (s *RedisStore) Put(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID, scopes []string) error {
	key := s.key(tenantID, clientID, userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(scopes) > 0 {
			members := make([]any, len(scopes))
			for i, sc := range scopes {
				members[i] = sc
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store consent: %w", err)
	}
	return nil
}
