package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// BalanceCache holds display balances and resolved identifier aliases.
// It is never consulted when a balance feeds a financial decision.
//
// SetBalance carries the account version the balance was read at. An entry
// is only replaced by a strictly newer version, so a slow reader can never
// overwrite what a later write cached.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID string) (int64, bool, error)
	SetBalance(ctx context.Context, accountID string, balance, version int64) error
	DeleteBalance(ctx context.Context, accountID string) error
	GetAlias(ctx context.Context, alias string) (string, bool, error)
	SetAlias(ctx context.Context, alias, accountID string) error
}

// setBalanceScript stores "version:balance" unless the key already holds
// the same or a newer version.
var setBalanceScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local version = tonumber(string.match(current, "^(%d+):"))
	if version and version >= tonumber(ARGV[1]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1] .. ":" .. ARGV[2], "PX", ARGV[3])
return 1
`)

type RedisBalanceCache struct {
	redis      *redis.Client
	balanceTTL time.Duration
	aliasTTL   time.Duration
}

func NewRedisBalanceCache(client *redis.Client, balanceTTL, aliasTTL time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{
		redis:      client,
		balanceTTL: balanceTTL,
		aliasTTL:   aliasTTL,
	}
}

func balanceKey(accountID string) string {
	return fmt.Sprintf("wallet:balance:%s", accountID)
}

func aliasKey(alias string) string {
	return fmt.Sprintf("wallet:alias:%s", alias)
}

func (c *RedisBalanceCache) GetBalance(ctx context.Context, accountID string) (int64, bool, error) {
	value, err := c.redis.Get(ctx, balanceKey(accountID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	_, raw, found := strings.Cut(value, ":")
	if !found {
		return 0, false, nil
	}
	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return balance, true, nil
}

func (c *RedisBalanceCache) SetBalance(ctx context.Context, accountID string, balance, version int64) error {
	return setBalanceScript.Run(ctx, c.redis, []string{balanceKey(accountID)},
		version, balance, c.balanceTTL.Milliseconds()).Err()
}

func (c *RedisBalanceCache) DeleteBalance(ctx context.Context, accountID string) error {
	return c.redis.Del(ctx, balanceKey(accountID)).Err()
}

func (c *RedisBalanceCache) GetAlias(ctx context.Context, alias string) (string, bool, error) {
	accountID, err := c.redis.Get(ctx, aliasKey(alias)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return accountID, true, nil
}

func (c *RedisBalanceCache) SetAlias(ctx context.Context, alias, accountID string) error {
	return c.redis.Set(ctx, aliasKey(alias), accountID, c.aliasTTL).Err()
}

// cacheCommittedBalance refreshes the display cache after a committed write.
// When the refresh fails the entry is dropped so display reads fall through
// to the store instead of serving the pre-write balance.
func cacheCommittedBalance(ctx context.Context, cache BalanceCache, logger *zap.Logger, accountID string, balance, version int64) {
	if cache == nil {
		return
	}
	err := cache.SetBalance(ctx, accountID, balance, version)
	if err == nil {
		return
	}
	logger.Warn("balance cache write failed", zap.String("account_id", accountID), zap.Error(err))
	if err := cache.DeleteBalance(ctx, accountID); err != nil {
		logger.Warn("balance cache invalidation failed", zap.String("account_id", accountID), zap.Error(err))
	}
}
