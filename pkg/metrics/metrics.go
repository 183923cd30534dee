// Package metrics 定义服务暴露给 Prometheus 的指标。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chemsafe"

var (
	// CacheLookups 按文档类型和结果（hit/miss/error）统计缓存查询。
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Document cache lookups by kind and result.",
	}, []string{"kind", "result"})

	// CacheWrites 按文档类型和结果（ok/error）统计缓存写入。
	CacheWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_writes_total",
		Help:      "Document cache writes by kind and result.",
	}, []string{"kind", "result"})

	// Generations 按文档类型和结果统计模型调用。
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Generative backend calls by document kind and outcome.",
	}, []string{"kind", "outcome"})

	// GenerationSeconds 记录模型调用耗时。
	GenerationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Latency of generative backend calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
	}, []string{"kind"})

	// Notifications 按结果统计推送通知。
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Completion notifications by outcome.",
	}, []string{"outcome"})
)

// Handler 返回 /metrics 的 HTTP 处理器。
func Handler() http.Handler {
	return promhttp.Handler()
}
