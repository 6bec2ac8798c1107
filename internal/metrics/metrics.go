// Package metrics exposes prometheus counters for device operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "devicecatalog"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	deviceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "operations_total",
			Help:      "Device operations by operation, kind and outcome",
		},
		[]string{"operation", "kind", "outcome"},
	)

	allocationProbes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "allocations_total",
			Help:      "Identifiers handed out by the allocator",
		},
	)

	lowBatteryAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "low_battery_total",
			Help:      "Low battery alerts by delivery result",
		},
		[]string{"result"},
	)
)

// Recorder counts device operations. The zero value is ready to use.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) DeviceOperation(operation, kind, outcome string) {
	deviceOperations.WithLabelValues(operation, kind, outcome).Inc()
}

func (r *Recorder) IDAllocated() {
	allocationProbes.Inc()
}

func (r *Recorder) LowBatteryAlert(result string) {
	lowBatteryAlerts.WithLabelValues(result).Inc()
}
