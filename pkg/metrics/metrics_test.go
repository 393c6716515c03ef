package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestInitMetrics 重复初始化不应panic(重复注册会panic)
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	if HTTPRequestsTotal == nil || LoanOperationsTotal == nil || MessagesPublishedTotal == nil {
		t.Fatal("指标未初始化")
	}
}

func TestObserveLoanOperation(t *testing.T) {
	InitMetrics()
	counter := LoanOperationsTotal.WithLabelValues("borrow", "success")
	before := getCounterValue(t, counter)

	ObserveLoanOperation("borrow", "success", 0.01)
	ObserveLoanOperation("borrow", "success", 0.02)
	ObserveLoanOperation("borrow", "StateConflict", 0.01)

	if got := getCounterValue(t, counter) - before; got != 2 {
		t.Errorf("借书成功次数错误: expected=2, got=%f", got)
	}

	histogram := LoanOperationDuration.WithLabelValues("borrow").(prometheus.Histogram)
	metric := &dto.Metric{}
	if err := histogram.Write(metric); err != nil {
		t.Fatalf("读取Histogram失败: %v", err)
	}
	if metric.Histogram.GetSampleCount() < 3 {
		t.Errorf("Histogram样本数错误: got=%d", metric.Histogram.GetSampleCount())
	}
}

func TestAddFine(t *testing.T) {
	InitMetrics()
	before := getCounterValue(t, FinesAssessedTotal)

	AddFine(2.5)
	AddFine(0)
	AddFine(-1)

	if got := getCounterValue(t, FinesAssessedTotal) - before; got != 2.5 {
		t.Errorf("罚金累计错误: expected=2.5, got=%f", got)
	}
}

func TestGauges(t *testing.T) {
	SetOverdueLoans(4)
	if got := getGaugeValue(t, OverdueLoans); got != 4 {
		t.Errorf("逾期数量错误: expected=4, got=%f", got)
	}

	SetCircuitBreakerState("mq", 1)
	if got := getGaugeValue(t, CircuitBreakerState.WithLabelValues("mq")); got != 1 {
		t.Errorf("熔断器状态错误: expected=1, got=%f", got)
	}
}

func TestCounterVecLabels(t *testing.T) {
	InitMetrics()
	hit := ReportCacheRequests.WithLabelValues("inventory", "hit")
	miss := ReportCacheRequests.WithLabelValues("inventory", "miss")
	beforeHit, beforeMiss := getCounterValue(t, hit), getCounterValue(t, miss)

	ObserveReportCache("inventory", "hit")
	ObserveReportCache("inventory", "hit")
	ObserveReportCache("inventory", "miss")

	if got := getCounterValue(t, hit) - beforeHit; got != 2 {
		t.Errorf("命中次数错误: expected=2, got=%f", got)
	}
	if got := getCounterValue(t, miss) - beforeMiss; got != 1 {
		t.Errorf("未命中次数错误: expected=1, got=%f", got)
	}
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("读取Counter失败: %v", err)
	}
	return metric.Counter.GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("读取Gauge失败: %v", err)
	}
	return metric.Gauge.GetValue()
}
