// Package metrics 提供 Prometheus 指标集合与 /metrics 暴露端点
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 结算核心的指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务指标
	PoolsCreated     prometheus.Counter
	LiquidityChanges prometheus.Counter
	BatchesSettled   prometheus.Counter
	FeeAccruals      prometheus.Counter
	BondsSlashed     prometheus.Counter
	BreakerTrips     prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		PoolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "pools_created_total",
			Help:      "Total pools created",
		}),
		LiquidityChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "liquidity_changes_total",
			Help:      "Total liquidity deposits and withdrawals",
		}),
		BatchesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "batches_settled_total",
			Help:      "Total batches settled",
		}),
		FeeAccruals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "fee_accruals_total",
			Help:      "Total protocol fee accrual events",
		}),
		BondsSlashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "bonds_slashed_total",
			Help:      "Total bonds slashed for unrevealed commitments",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: serviceName,
			Name:      "breaker_trips_total",
			Help:      "Total circuit breaker trips",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PoolsCreated,
		m.LiquidityChanges,
		m.BatchesSettled,
		m.FeeAccruals,
		m.BondsSlashed,
		m.BreakerTrips,
	}
	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler 返回 Prometheus 暴露端点的 HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
