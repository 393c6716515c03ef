// Package metrics 定义Prometheus指标
//
// 指标类型:
//   - Counter: 只增不减(借书次数、罚金累计)
//   - Gauge: 可增可减(逾期数量、进行中的请求)
//   - Histogram: 耗时分布
//
// 所有指标注册到默认Registry,由/metrics端点暴露。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// ========== HTTP指标 ==========

	// HTTPRequestsTotal HTTP请求总数(method, path, code)
	// code为响应体中的业务码,HTTP状态恒为200
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// ========== 借阅指标 ==========

	// LoanOperationsTotal 借阅操作次数(operation=borrow|return, result=success|业务错误类别)
	LoanOperationsTotal *prometheus.CounterVec

	// LoanOperationDuration 借阅操作耗时(含事务)
	LoanOperationDuration *prometheus.HistogramVec

	// FinesAssessedTotal 累计罚金
	FinesAssessedTotal prometheus.Counter

	// OverdueLoans 最近一次扫描得到的逾期数量
	OverdueLoans prometheus.Gauge

	// ReportCacheRequests 报表缓存命中情况(report, result=hit|miss|error)
	ReportCacheRequests *prometheus.CounterVec

	// ========== 熔断器指标 ==========

	// CircuitBreakerState 熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求数(result=success|failure|rejected)
	CircuitBreakerRequests *prometheus.CounterVec

	// ========== 消息队列指标 ==========

	// MessagesPublishedTotal 消息发布总数(exchange, routing_key, result)
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数(queue, result)
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 注册所有指标,可重复调用
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	LoanOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_loan_operations_total",
			Help: "借阅操作次数",
		},
		[]string{"operation", "result"},
	)

	LoanOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_loan_operation_duration_seconds",
			Help:    "借阅操作耗时（秒）",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FinesAssessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_fines_assessed_total",
			Help: "累计罚金",
		},
	)

	OverdueLoans = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_overdue_loans",
			Help: "逾期未还数量",
		},
	)

	ReportCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_report_cache_requests_total",
			Help: "报表缓存请求数",
		},
		[]string{"report", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "library_circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "library_message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// ObserveLoanOperation 记录一次借阅操作
func ObserveLoanOperation(operation, result string, seconds float64) {
	InitMetrics()
	LoanOperationsTotal.WithLabelValues(operation, result).Inc()
	LoanOperationDuration.WithLabelValues(operation).Observe(seconds)
}

// AddFine 累加罚金(负数忽略)
func AddFine(amount float64) {
	InitMetrics()
	if amount > 0 {
		FinesAssessedTotal.Add(amount)
	}
}

// SetOverdueLoans 更新逾期数量
func SetOverdueLoans(n int) {
	InitMetrics()
	OverdueLoans.Set(float64(n))
}

// ObserveReportCache 记录报表缓存结果
func ObserveReportCache(report, result string) {
	InitMetrics()
	ReportCacheRequests.WithLabelValues(report, result).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCircuitBreakerRequest 记录熔断器请求结果
func IncCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncMessagePublished 记录消息发布
func IncMessagePublished(exchange, routingKey, result string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, result).Inc()
}

// ObserveMessageConsumed 记录消息消费
func ObserveMessageConsumed(queue, result string, seconds float64) {
	InitMetrics()
	MessagesConsumedTotal.WithLabelValues(queue, result).Inc()
	MessageProcessingDuration.Observe(seconds)
}
