package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

const redisCachePrefix = "doccache"

// redisDocumentCache 是位于持久化缓存表前面的一层 Redis 热缓存。
// Redis 出错时直接退回到下一层，不影响结果。
type redisDocumentCache struct {
	redisClient *redis.Client
	next        DocumentCacheRepository
	ttl         time.Duration
}

// NewRedisDocumentCache 用 Redis 包装另一个 DocumentCacheRepository。
func NewRedisDocumentCache(redisClient *redis.Client, next DocumentCacheRepository, ttl time.Duration) DocumentCacheRepository {
	return &redisDocumentCache{redisClient: redisClient, next: next, ttl: ttl}
}

// RedisCacheKey 生成 Redis 中的键，查询串做哈希以控制键长。
func RedisCacheKey(key model.CacheKey) string {
	sum := sha256.Sum256([]byte(key.NormalizedQuery))
	return fmt.Sprintf("%s:%s:%s:%s", redisCachePrefix, key.Kind, key.Language, hex.EncodeToString(sum[:16]))
}

func (r *redisDocumentCache) Find(ctx context.Context, key model.CacheKey) (json.RawMessage, error) {
	rk := RedisCacheKey(key)
	data, err := r.redisClient.Get(ctx, rk).Bytes()
	switch {
	case err == nil && json.Valid(data):
		return json.RawMessage(data), nil
	case err == nil:
		// 非法内容会挡住之后的 SetNX，删掉后由数据库回填
		log.Warnf("Redis 缓存内容不是合法 JSON，已删除: key=%s", rk)
		if delErr := r.redisClient.Del(ctx, rk).Err(); delErr != nil {
			log.Warnf("删除 Redis 缓存失败: key=%s, err=%v", rk, delErr)
		}
	case !errors.Is(err, redis.Nil):
		log.Warnf("读取 Redis 缓存失败，回退到数据库: key=%s, err=%v", rk, err)
	}

	payload, err := r.next.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	// 回填热缓存
	if setErr := r.redisClient.SetNX(ctx, rk, []byte(payload), r.ttl).Err(); setErr != nil {
		log.Warnf("回填 Redis 缓存失败: key=%s, err=%v", rk, setErr)
	}
	return payload, nil
}

// Save 只有在下层真正写入时才写 Redis，竞争失败的写者交给 Find 从数据库回填。
func (r *redisDocumentCache) Save(ctx context.Context, key model.CacheKey, payload json.RawMessage) (bool, error) {
	inserted, err := r.next.Save(ctx, key, payload)
	if err != nil || !inserted {
		return inserted, err
	}
	rk := RedisCacheKey(key)
	if err := r.redisClient.SetNX(ctx, rk, []byte(payload), r.ttl).Err(); err != nil {
		log.Warnf("写入 Redis 缓存失败: key=%s, err=%v", rk, err)
	}
	return true, nil
}

func (r *redisDocumentCache) DeleteKind(ctx context.Context, kind model.DocumentKind) (int64, error) {
	n, err := r.next.DeleteKind(ctx, kind)
	if err != nil {
		return 0, err
	}

	pattern := fmt.Sprintf("%s:%s:*", redisCachePrefix, kind)
	var cursor uint64
	for {
		keys, next, scanErr := r.redisClient.Scan(ctx, cursor, pattern, 200).Result()
		if scanErr != nil {
			return n, fmt.Errorf("failed to scan redis keys: %w", scanErr)
		}
		if len(keys) > 0 {
			if delErr := r.redisClient.Del(ctx, keys...).Err(); delErr != nil {
				return n, fmt.Errorf("failed to delete redis keys: %w", delErr)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return n, nil
}
