package services

import (
	"context"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

// DeviceStore persists devices. Implemented by devices.Repository.
type DeviceStore interface {
	GetAll(ctx context.Context) ([]entities.DeviceSummary, error)
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	Insert(ctx context.Context, device *entities.Device) error
	Update(ctx context.Context, device *entities.Device) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (map[entities.Kind]int64, error)
}

// DeviceValidator checks a device before it is written.
type DeviceValidator interface {
	Validate(device *entities.Device) error
}

// IDAllocator hands out fresh device identifiers.
type IDAllocator interface {
	NextID(ctx context.Context, kind entities.Kind) (string, error)
}

// AuditLogger records the outcome of device operations.
type AuditLogger interface {
	LogDevice(eventType entities.AuditEventType, action string, kind entities.Kind, deviceID string, status entities.AuditStatus, err error)
}

// MetricsRecorder counts device operations.
type MetricsRecorder interface {
	DeviceOperation(operation, kind, outcome string)
	IDAllocated()
}
