package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/devicecatalog/internal/database/audit"
	"github.com/mrlokans/devicecatalog/internal/entities"
)

// Service provides high-level audit logging functionality. Failing to record
// an event is logged and never surfaces to the caller.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

func (s *Service) record(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		log.Printf("Failed to log audit event: %v", err)
	}
}

// LogDevice records the outcome of a device operation.
func (s *Service) LogDevice(eventType entities.AuditEventType, action string, kind entities.Kind, deviceID string, status entities.AuditStatus, err error) {
	event := &entities.AuditEvent{
		EventType:   eventType,
		Action:      action,
		Description: describe(action, kind, deviceID),
		DeviceKind:  kind,
		DeviceID:    deviceID,
		Status:      status,
	}
	if err != nil {
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.record(event)
}

// LogLowBattery records a low-battery alert for a smartwatch.
func (s *Service) LogLowBattery(deviceID string, level int) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventLowBattery,
		Action:      "low_battery_alert",
		Description: fmt.Sprintf("Battery level is low. Current level is: %d%%", level),
		DeviceKind:  entities.KindSmartwatch,
		DeviceID:    deviceID,
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{"battery_level": level}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	s.record(event)
}

// LogCleanup records an audit retention run.
func (s *Service) LogCleanup(deleted int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCleanup,
		Action:      "audit_cleanup",
		Description: fmt.Sprintf("Removed %d expired audit events", deleted),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.record(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

// GetEventsForDevice retrieves paginated audit events for one device.
func (s *Service) GetEventsForDevice(deviceID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsForDevice(deviceID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(retention)
}

func describe(action string, kind entities.Kind, deviceID string) string {
	if deviceID == "" {
		return fmt.Sprintf("%s (%s)", action, kind.DisplayName())
	}
	return fmt.Sprintf("%s %s %s", action, kind.DisplayName(), deviceID)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
