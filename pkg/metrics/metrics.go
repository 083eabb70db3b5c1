package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 导入与网格编译的 Prometheus 指标。nil Recorder 的所有方法均为空操作。
type Recorder struct {
	batches  *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  prometheus.Counter
}

// NewRecorder 在 reg 上注册指标；reg 为 nil 时使用默认注册器，已注册的指标直接复用
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_import_batches_total",
		Help: "Import batches by entity, policy and outcome",
	}, []string{"entity", "policy", "outcome"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_import_records_total",
		Help: "Imported records by entity and action (created, updated, skipped)",
	}, []string{"entity", "action"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_import_duration_seconds",
		Help:    "Time spent applying an import plan",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campus_grid_entries_skipped_total",
		Help: "Schedule entries left out of a compiled grid because of an invalid time range or day",
	})

	var err error
	if batches, err = register(reg, batches); err != nil {
		return nil, err
	}
	if records, err = register(reg, records); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if skipped, err = register(reg, skipped); err != nil {
		return nil, err
	}
	return &Recorder{batches: batches, records: records, duration: duration, skipped: skipped}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Batch 记录一次导入的结果（outcome: previewed / committed / aborted / rejected / invalid）
func (r *Recorder) Batch(entity, policy, outcome string) {
	if r == nil {
		return
	}
	r.batches.WithLabelValues(entity, policy, outcome).Inc()
}

// Records 记录写入条数
func (r *Recorder) Records(entity string, created, updated, skipped int) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(entity, "created").Add(float64(created))
	r.records.WithLabelValues(entity, "updated").Add(float64(updated))
	r.records.WithLabelValues(entity, "skipped").Add(float64(skipped))
}

// ApplyDuration 记录应用计划耗时
func (r *Recorder) ApplyDuration(entity string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(entity).Observe(d.Seconds())
}

// GridSkipped 记录编译时被跳过的条目数
func (r *Recorder) GridSkipped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skipped.Add(float64(n))
}
