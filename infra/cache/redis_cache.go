package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// setIfNewer writes the balance hash only when the incoming sequence is
// greater than the cached one. KEYS[1]=key ARGV[1]=cents ARGV[2]=seq ARGV[3]=ttl ms
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'seq')
if cur and tonumber(cur) >= tonumber(ARGV[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'cents', ARGV[1], 'seq', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// RedisBalanceCache implements cache.BalanceCache using Redis hashes.
type RedisBalanceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisBalanceCache creates a new RedisBalanceCache from redis.Options.
func NewRedisBalanceCache(
	opt *redis.Options,
	prefix string,
	ttl time.Duration,
	logger *slog.Logger,
) *RedisBalanceCache {
	return &RedisBalanceCache{
		client: redis.NewClient(opt),
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisBalanceCache) key(accountID uuid.UUID) string {
	return r.prefix + "balance:" + accountID.String()
}

// Ping checks connectivity.
func (r *RedisBalanceCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBalanceCache) Get(ctx context.Context, accountID uuid.UUID) (cache.Balance, bool, error) {
	vals, err := r.client.HMGet(ctx, r.key(accountID), "cents", "seq").Result()
	if errors.Is(err, redis.Nil) {
		return cache.Balance{}, false, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "account_id", accountID, "error", err)
		return cache.Balance{}, false, err
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		r.logger.Debug("Redis cache miss", "account_id", accountID)
		return cache.Balance{}, false, nil
	}
	cents, err := parseField(vals[0])
	if err != nil {
		return cache.Balance{}, false, err
	}
	seq, err := parseField(vals[1])
	if err != nil {
		return cache.Balance{}, false, err
	}
	return cache.Balance{Cents: cents, Seq: seq}, true, nil
}

func (r *RedisBalanceCache) Set(ctx context.Context, accountID uuid.UUID, b cache.Balance) error {
	err := setIfNewer.Run(ctx, r.client,
		[]string{r.key(accountID)},
		b.Cents, b.Seq, r.ttl.Milliseconds(),
	).Err()
	if err != nil {
		r.logger.Error("Redis cache set error", "account_id", accountID, "error", err)
		return err
	}
	return nil
}

func (r *RedisBalanceCache) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := r.client.Del(ctx, r.key(accountID)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "account_id", accountID, "error", err)
		return err
	}
	return nil
}

// Close releases the client connections.
func (r *RedisBalanceCache) Close() error {
	return r.client.Close()
}

func parseField(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected redis value %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}
