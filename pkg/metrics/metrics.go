// Package metrics 提供 Prometheus 指标集合：HTTP 请求、定价、校准与蒙特卡洛模拟
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "optionsengine"

// Metrics 指标集合，使用独立的 Registry，便于在测试中重复创建
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 定价类操作计数：price, greeks, implied_volatility
	PricingOpsTotal *prometheus.CounterVec
	// 波动率校准计数
	CalibrationsTotal *prometheus.CounterVec
	// 策略分析计数
	StrategiesAnalyzed prometheus.Counter

	// 模拟次数
	SimulationsTotal *prometheus.CounterVec
	// 模拟路径数
	SimulatedPathsTotal prometheus.Counter
	// 被剔除的路径数
	ExcludedPathsTotal prometheus.Counter
	// 模拟耗时
	SimulationDuration prometheus.Histogram
}

// New 创建并注册指标
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "path"}),
		PricingOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pricing",
			Name:        "operations_total",
			Help:        "Pricing operations by operation, model and result",
			ConstLabels: labels,
		}, []string{"operation", "model", "result"}),
		CalibrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "volatility",
			Name:        "calibrations_total",
			Help:        "Volatility calibrations by kind and result",
			ConstLabels: labels,
		}, []string{"kind", "result"}),
		StrategiesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "strategy",
			Name:        "analyzed_total",
			Help:        "Strategies analyzed",
			ConstLabels: labels,
		}),
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "simulation",
			Name:        "runs_total",
			Help:        "Monte Carlo runs by process and result",
			ConstLabels: labels,
		}, []string{"process", "result"}),
		SimulatedPathsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "simulation",
			Name:        "paths_total",
			Help:        "Simulated paths",
			ConstLabels: labels,
		}),
		ExcludedPathsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "simulation",
			Name:        "excluded_paths_total",
			Help:        "Paths excluded after evaluation failure",
			ConstLabels: labels,
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "simulation",
			Name:        "duration_seconds",
			Help:        "Monte Carlo run duration in seconds",
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 10),
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PricingOpsTotal,
		m.CalibrationsTotal,
		m.StrategiesAnalyzed,
		m.SimulationsTotal,
		m.SimulatedPathsTotal,
		m.ExcludedPathsTotal,
		m.SimulationDuration,
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPricing 记录定价类操作
func (m *Metrics) RecordPricing(operation, model string, err error) {
	m.PricingOpsTotal.WithLabelValues(operation, model, result(err)).Inc()
}

// RecordCalibration 记录一次波动率校准
func (m *Metrics) RecordCalibration(kind string, err error) {
	m.CalibrationsTotal.WithLabelValues(kind, result(err)).Inc()
}

// RecordSimulation 记录一次模拟，路径数只在成功时累计
func (m *Metrics) RecordSimulation(process string, paths, excluded int, duration time.Duration, err error) {
	m.SimulationsTotal.WithLabelValues(process, result(err)).Inc()
	if err != nil {
		return
	}
	m.SimulatedPathsTotal.Add(float64(paths))
	m.ExcludedPathsTotal.Add(float64(excluded))
	m.SimulationDuration.Observe(duration.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
