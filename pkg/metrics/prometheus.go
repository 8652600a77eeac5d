package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 收集 ledger 操作的 Prometheus 指標
type Collector struct {
	registry          *prometheus.Registry
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	interestApplied   prometheus.Counter
	accountsOpened    *prometheus.CounterVec
	resultLabel       func(error) string
	logger            *slog.Logger
	server            *http.Server
}

// Option 定義了 Collector 的配置選項函數
type Option func(*Collector)

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResultLabel 設定錯誤對應到 result label 的方式，預設只分 ok / error
func WithResultLabel(fn func(error) string) Option {
	return func(c *Collector) {
		if fn != nil {
			c.resultLabel = fn
		}
	}
}

func NewCollector(opts ...Option) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations by result",
		}, []string{"operation", "result"}),
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time taken by a ledger operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		interestApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_interest_applied_minor_units_total",
			Help: "Interest credited to accounts, in minor units",
		}),
		accountsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_accounts_opened_total",
			Help: "Accounts opened by interest rate tier",
		}, []string{"rate"}),
		resultLabel: defaultResultLabel,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

// RateLabel 利率 label 固定兩位小數，例如 "0.93"
func RateLabel(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 2, 64)
}

func (c *Collector) ObserveOperation(op string, d time.Duration, err error) {
	c.operations.WithLabelValues(op, c.resultLabel(err)).Inc()
	c.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) ObserveInterest(_ float64, applied int64) {
	if applied > 0 {
		c.interestApplied.Add(float64(applied))
	}
}

func (c *Collector) ObserveAccountOpened(rate float64) {
	c.accountsOpened.WithLabelValues(RateLabel(rate)).Inc()
}

// Registry 回傳底層 registry，供測試或額外註冊使用
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Start 於背景啟動 /metrics HTTP server
func (c *Collector) Start(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	c.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.Info("starting metrics server", slog.String("addr", addr))
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown 關閉 metrics server，未啟動時直接回傳
func (c *Collector) Shutdown(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
