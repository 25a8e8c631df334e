package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// purgeIndexKey 记录每个 key 的写入时间（score = epoch 毫秒），
// 供 DeleteOlderThan 做机会式清理，避免全库 SCAN。
const purgeIndexKey = "feedkit:purge_index"

// RedisStore 是 Redis 实现的持久缓存层。
// 艺人主页的持久行与地区榜单兜底数据都落在这里，
// 进程重启后过期容忍链仍然可用。
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return NewRedisStoreFromClient(client, nil), nil
}

// NewRedisStoreFromClient 复用已有客户端并注入时钟（nil 用 time.Now）。
// 清理索引的写入时间戳与 MemoryStore 一样吃同一个时钟。
func NewRedisStoreFromClient(client *redis.Client, clock func() time.Time) *RedisStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, clock: clock}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttlSec int) error {
	var expiration time.Duration
	if ttlSec > 0 {
		expiration = time.Duration(ttlSec) * time.Second
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, value, expiration)
	pipe.ZAdd(ctx, purgeIndexKey, redis.Z{
		Score:  float64(r.clock().UnixMilli()),
		Member: key,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, purgeIndexKey, key)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteOlderThan 按写入时间清理带前缀的行。
// 先从索引取出早于界限的 key，再删行与索引项。
func (r *RedisStore) DeleteOlderThan(ctx context.Context, prefix string, olderThanMs int64) error {
	members, err := r.client.ZRangeByScore(ctx, purgeIndexKey, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(olderThanMs, 10),
	}).Result()
	if err != nil {
		return err
	}

	stale := make([]string, 0, len(members))
	for _, m := range members {
		if strings.HasPrefix(m, prefix) {
			stale = append(stale, m)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, stale...)
	for _, k := range stale {
		pipe.ZRem(ctx, purgeIndexKey, k)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (r *RedisStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRevRange(ctx, key, start, stop).Result()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
