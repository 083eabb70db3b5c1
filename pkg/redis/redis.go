package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus-scheduler/config"
	apperrors "campus-scheduler/pkg/errors"
)

// Client Redis 客户端封装
// 用于导入批次暂存（预览 → 选择策略 → 提交）与导入接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 导入批次暂存 ──

const batchPrefix = "import:batch:"

// SaveBatch 暂存规范化后的批次（JSON），ttl 到期自动清除
func (c *Client) SaveBatch(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, batchPrefix+token, payload, ttl).Err()
}

// LoadBatch 读取暂存批次；不存在或已过期返回 ErrStagedBatchNotFound
func (c *Client) LoadBatch(ctx context.Context, token string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, batchPrefix+token).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, apperrors.ErrStagedBatchNotFound
	}
	return b, err
}

// DeleteBatch 删除暂存批次（提交或放弃后调用）
func (c *Client) DeleteBatch(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, batchPrefix+token).Err()
}

// ── 限流 ──

// CheckRateLimit 滑动窗口计数：窗口内请求数未超过 limit 时返回 true
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10)

	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		c.logger.Warn("限流计数失败", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
