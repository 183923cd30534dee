package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/repository"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/metrics"
)

// Store 是缓存旁路流程看到的缓存接口。
// 存储层的任何失败都在这里被吸收：Get 退化为未命中，Put 只返回 false。
type Store interface {
	Get(ctx context.Context, key model.CacheKey) (json.RawMessage, bool)
	Put(ctx context.Context, key model.CacheKey, payload json.RawMessage) bool
}

type store struct {
	repo    repository.DocumentCacheRepository
	timeout time.Duration
}

// NewStore 创建一个 Store，每次存取都受 timeout 限制。
func NewStore(repo repository.DocumentCacheRepository, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &store{repo: repo, timeout: timeout}
}

func (s *store) Get(ctx context.Context, key model.CacheKey) (json.RawMessage, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.repo.Find(ctx, key)
	if errors.Is(err, repository.ErrCacheMiss) {
		metrics.CacheLookups.WithLabelValues(string(key.Kind), "miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(string(key.Kind), "error").Inc()
		log.Warnw("缓存读取失败，按未命中处理", "key", key.String(), "error", apperror.CacheUnavailable("cache.get", err))
		return nil, false
	}
	if !json.Valid(payload) {
		metrics.CacheLookups.WithLabelValues(string(key.Kind), "error").Inc()
		log.Warnw("缓存内容不是合法 JSON，按未命中处理", "key", key.String())
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(string(key.Kind), "hit").Inc()
	return payload, true
}

func (s *store) Put(ctx context.Context, key model.CacheKey, payload json.RawMessage) bool {
	// 生成结果代价高，请求被取消后仍然尝试写入
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if _, err := s.repo.Save(ctx, key, payload); err != nil {
		metrics.CacheWrites.WithLabelValues(string(key.Kind), "error").Inc()
		log.Warnw("缓存写入失败，已忽略", "key", key.String(), "error", apperror.CacheUnavailable("cache.put", err))
		return false
	}
	metrics.CacheWrites.WithLabelValues(string(key.Kind), "ok").Inc()
	return true
}
