package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default 获取全局注册表
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		registerDefaults(defaultRegistry)
	})
	return defaultRegistry
}

// registerDefaults 注册应用指标
func registerDefaults(r *Registry) {
	r.NewCounter("banbiao_http_requests_total", "HTTP请求总数", []string{"method", "path", "status"})
	r.NewHistogram("banbiao_http_request_duration_seconds", "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	r.NewCounter("banbiao_roster_generation_total", "排班生成次数", []string{"status"})
	r.NewHistogram("banbiao_roster_generation_duration_seconds", "排班生成延迟",
		[]string{},
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0})

	r.NewCounter("banbiao_rule_violations_total", "生成过程规则违反次数", []string{"rule"})
	r.NewCounter("banbiao_swap_requests_total", "换班请求数", []string{"status"})

	r.NewGauge("banbiao_fairness_index", "最近一次排班的公平性指数", []string{"org_id"})
	r.NewGauge("banbiao_coverage_fill_rate", "最近一次排班的槽位填充率", []string{"org_id"})
	r.NewGauge("banbiao_db_connections", "数据库连接数", []string{"state"})
}

// Handler 全局注册表的HTTP处理器
func Handler() http.Handler {
	return Default().Handler()
}

// RecordRequest 记录HTTP请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	r := Default()
	r.counters["banbiao_http_requests_total"].Inc(method, path, fmt.Sprintf("%d", status))
	r.histograms["banbiao_http_request_duration_seconds"].Observe(duration.Seconds(), method, path)
}

// RecordGeneration 记录排班生成指标
func RecordGeneration(success bool, duration time.Duration) {
	r := Default()
	status := "success"
	if !success {
		status = "failure"
	}
	r.counters["banbiao_roster_generation_total"].Inc(status)
	r.histograms["banbiao_roster_generation_duration_seconds"].Observe(duration.Seconds())
}

// RecordRuleViolation 记录规则违反
func RecordRuleViolation(rule string) {
	Default().counters["banbiao_rule_violations_total"].Inc(rule)
}

// RecordSwapRequest 记录换班请求
func RecordSwapRequest(status string) {
	Default().counters["banbiao_swap_requests_total"].Inc(status)
}

// SetFairnessIndex 设置公平性指数
func SetFairnessIndex(orgID string, index float64) {
	Default().gauges["banbiao_fairness_index"].Set(index, orgID)
}

// SetCoverageFillRate 设置槽位填充率
func SetCoverageFillRate(orgID string, rate float64) {
	Default().gauges["banbiao_coverage_fill_rate"].Set(rate, orgID)
}

// SetDBConnections 设置数据库连接数
func SetDBConnections(state string, count int) {
	Default().gauges["banbiao_db_connections"].Set(float64(count), state)
}
