package database

import (
	"context"
	"net"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InitRedis returns nil when Redis is unreachable. The wallet runs without
// its cache, event queue and receipt cache in that case.
func InitRedis(ctx context.Context, logger *zap.Logger) *redis.Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := net.JoinHostPort(viper.GetString("redis.host"), viper.GetString("redis.port"))
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection failed, continuing without redis", zap.String("addr", addr), zap.Error(err))
		rdb.Close()
		return nil
	}

	logger.Info("redis connection established", zap.String("addr", addr))
	return rdb
}
