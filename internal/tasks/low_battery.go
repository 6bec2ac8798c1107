package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AlertPublisher delivers a low battery alert to the outside world.
type AlertPublisher interface {
	PublishLowBattery(deviceID string, level int) error
}

// AlertAuditor records that an alert was raised.
type AlertAuditor interface {
	LogLowBattery(deviceID string, level int)
}

// AlertMetrics counts alert delivery results.
type AlertMetrics interface {
	LowBatteryAlert(result string)
}

// TaskEnqueuer stores a task for later processing. Implemented by Client.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// LowBatteryTask publishes one low battery alert.
type LowBatteryTask struct {
	DeviceID     string    `json:"device_id"`
	BatteryLevel int       `json:"battery_level"`
	RaisedAt     time.Time `json:"raised_at"`
}

// Config returns the queue configuration for low battery alerts.
func (t LowBatteryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "low_battery_alert",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     15 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// LowBatteryProcessor publishes the alert. A nil publisher means delivery is
// disabled and the task completes after logging.
func LowBatteryProcessor(publisher AlertPublisher, metrics AlertMetrics) backlite.QueueProcessor[LowBatteryTask] {
	return func(ctx context.Context, task LowBatteryTask) error {
		if publisher == nil {
			log.Printf("[TASK] Low battery alert for %s (%d%%) not published: no broker configured", task.DeviceID, task.BatteryLevel)
			countAlert(metrics, "skipped")
			return nil
		}

		if err := publisher.PublishLowBattery(task.DeviceID, task.BatteryLevel); err != nil {
			countAlert(metrics, "failed")
			return fmt.Errorf("publish low battery alert for %s: %w", task.DeviceID, err)
		}

		log.Printf("[TASK] Published low battery alert for %s (%d%%)", task.DeviceID, task.BatteryLevel)
		countAlert(metrics, "published")
		return nil
	}
}

// NewLowBatteryQueue creates a backlite queue for low battery alerts.
func NewLowBatteryQueue(publisher AlertPublisher, metrics AlertMetrics) backlite.Queue {
	return backlite.NewQueue(LowBatteryProcessor(publisher, metrics))
}

// LowBatteryNotifier records a low battery alert in the audit log and hands
// it to the queue for delivery. It satisfies entities.LowBatteryNotifier.
type LowBatteryNotifier struct {
	queue   TaskEnqueuer
	auditor AlertAuditor
	metrics AlertMetrics
}

// NewLowBatteryNotifier creates a notifier. Any dependency may be nil.
func NewLowBatteryNotifier(queue TaskEnqueuer, auditor AlertAuditor, metrics AlertMetrics) *LowBatteryNotifier {
	return &LowBatteryNotifier{queue: queue, auditor: auditor, metrics: metrics}
}

func (n *LowBatteryNotifier) NotifyLowBattery(ctx context.Context, deviceID string, level int) {
	if n.auditor != nil {
		n.auditor.LogLowBattery(deviceID, level)
	}
	if n.queue == nil {
		countAlert(n.metrics, "skipped")
		return
	}

	task := LowBatteryTask{DeviceID: deviceID, BatteryLevel: level, RaisedAt: time.Now().UTC()}
	if _, err := n.queue.Enqueue(ctx, task); err != nil {
		log.Printf("[TASK ERROR] Failed to enqueue low battery alert for %s: %v", deviceID, err)
		countAlert(n.metrics, "enqueue_failed")
		return
	}
	countAlert(n.metrics, "queued")
}

func countAlert(metrics AlertMetrics, result string) {
	if metrics != nil {
		metrics.LowBatteryAlert(result)
	}
}
