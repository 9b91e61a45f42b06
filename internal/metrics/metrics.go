// Package metrics 记录一次加载运行的计数，运行结束后可写成 node_exporter textfile。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imdbloader"

// Metrics 单次运行的指标集合，使用独立的 Registry
type Metrics struct {
	registry *prometheus.Registry

	RecordsProcessed *prometheus.CounterVec // dataset
	RecordsSkipped   *prometheus.CounterVec // dataset, reason
	RecordsWritten   *prometheus.CounterVec // entity
	BatchesCommitted *prometheus.CounterVec // entity
	StageDuration    *prometheus.GaugeVec   // stage
	LastSuccess      prometheus.Gauge
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Lines read from a dataset file (header excluded).",
		}, []string{"dataset"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Lines skipped by the record parsers.",
		}, []string{"dataset", "reason"}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Rows committed to the store.",
		}, []string{"entity"}),
		BatchesCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_committed_total",
			Help:      "Batch transactions committed.",
		}, []string{"entity"}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of the last run of each stage.",
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that reached DONE.",
		}),
	}
	m.registry.MustRegister(
		m.RecordsProcessed,
		m.RecordsSkipped,
		m.RecordsWritten,
		m.BatchesCommitted,
		m.StageDuration,
		m.LastSuccess,
	)
	return m
}

// Commit 记录一次批量提交
func (m *Metrics) Commit(entity string, rows int) {
	if m == nil {
		return
	}
	m.BatchesCommitted.WithLabelValues(entity).Inc()
	m.RecordsWritten.WithLabelValues(entity).Add(float64(rows))
}

// Stage 记录阶段耗时
func (m *Metrics) Stage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// Read 记录读取与跳过的行数
func (m *Metrics) Read(dataset string, processed int64, skipped map[string]int64) {
	if m == nil {
		return
	}
	m.RecordsProcessed.WithLabelValues(dataset).Add(float64(processed))
	for reason, n := range skipped {
		m.RecordsSkipped.WithLabelValues(dataset, reason).Add(float64(n))
	}
}

// Succeeded 标记运行成功
func (m *Metrics) Succeeded(at time.Time) {
	if m == nil {
		return
	}
	m.LastSuccess.Set(float64(at.Unix()))
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile 写出 textfile 格式，path 为空时什么都不做
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
