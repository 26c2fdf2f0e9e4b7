package service

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Lee_Social/internal/pkg"
)

var (
	// transitionsTotal 关系状态变更，result 为 ok 或错误类型
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relation_transitions_total",
		Help: "Relationship operations by operation and result",
	}, []string{"op", "result"})

	counterClampedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relation_counter_clamped_total",
		Help: "Counter decrements clamped at zero",
	}, []string{"column"})

	notifyEmitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_emit_failures_total",
		Help: "Notifications that could not be handed to the emitter",
	})

	outboxRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_outbox_relayed_total",
		Help: "Outbox rows relayed by result",
	}, []string{"result"})

	reconcileDriftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relation_reconcile_drift_total",
		Help: "Drifted counters repaired by the reconciler",
	}, []string{"column"})
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = strings.ToLower(pkg.KindOf(err).String())
	}
	transitionsTotal.WithLabelValues(op, result).Inc()
}

// CounterClamped 作为 mysql.Counter 的 OnClamp 回调
func CounterClamped(column string, _ uint64) {
	counterClampedTotal.WithLabelValues(column).Inc()
}
