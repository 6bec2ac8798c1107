package http

import (
	"context"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

// DeviceService is the device API the controllers drive. Implemented by
// services.DeviceService.
type DeviceService interface {
	Create(ctx context.Context, device *entities.Device) (string, error)
	Update(ctx context.Context, device *entities.Device) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]entities.DeviceSummary, error)
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	TurnOn(ctx context.Context, id, version string) (*entities.Device, error)
	TurnOff(ctx context.Context, id, version string) (*entities.Device, error)
	Stats(ctx context.Context) (map[entities.Kind]int64, error)
}

// AuditReader provides paginated access to audit events.
type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForDevice(deviceID string, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// RequestJournal keeps a copy of incoming write requests.
type RequestJournal interface {
	SaveJSON(operation string, data any) (string, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
