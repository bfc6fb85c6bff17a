package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "rejected_total",
			Help:      "被上传守卫拒绝的文件数量。",
		},
		[]string{"bucket", "reason"},
	)

	storageCleanupDeferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "cleanup_deferred_total",
			Help:      "删除失败并转入异步清理的对象数量。",
		},
		[]string{"bucket"},
	)

	contactDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "deliveries_total",
			Help:      "Contact form submissions by email delivery outcome.",
		},
		[]string{"outcome"},
	)
)

// UploadRejected counts a rejected upload; reason is one of size, mime, virus.
func UploadRejected(bucket, reason string) {
	uploadsRejected.WithLabelValues(bucket, reason).Inc()
}

// StorageCleanupDeferred counts an object whose removal was handed to the worker.
func StorageCleanupDeferred(bucket string) {
	storageCleanupDeferred.WithLabelValues(bucket).Inc()
}

// ContactDelivery records the email function outcome ("sent", "failed", "disabled").
func ContactDelivery(outcome string) {
	contactDeliveries.WithLabelValues(outcome).Inc()
}
