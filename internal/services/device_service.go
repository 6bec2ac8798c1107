package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/metrics"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// ErrNotFound is returned when the requested device does not exist.
var ErrNotFound = errors.New("device not found")

// DeviceServiceConfig holds the dependencies of a DeviceService. Notifier,
// Audit and Metrics are optional.
type DeviceServiceConfig struct {
	Store     DeviceStore
	Validator DeviceValidator
	Allocator IDAllocator
	Notifier  entities.LowBatteryNotifier
	Audit     AuditLogger
	Metrics   MetricsRecorder
}

// DeviceService runs every device mutation through validation, id
// allocation and the store, in that order.
type DeviceService struct {
	store     DeviceStore
	validator DeviceValidator
	allocator IDAllocator
	notifier  entities.LowBatteryNotifier
	audit     AuditLogger
	metrics   MetricsRecorder
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(cfg DeviceServiceConfig) *DeviceService {
	return &DeviceService{
		store:     cfg.Store,
		validator: cfg.Validator,
		allocator: cfg.Allocator,
		notifier:  cfg.Notifier,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
	}
}

// Create validates the device, assigns it a fresh id and stores it. Any id
// already set on the device is overwritten. On success the device carries
// its id and version.
func (s *DeviceService) Create(ctx context.Context, device *entities.Device) (string, error) {
	kind := device.Kind()

	if err := s.validator.Validate(device); err != nil {
		s.record(entities.AuditEventCreate, "device_create", kind, "", err)
		return "", err
	}

	id, err := s.allocator.NextID(ctx, kind)
	if err != nil {
		s.record(entities.AuditEventCreate, "device_create", kind, "", err)
		return "", fmt.Errorf("failed to allocate id: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IDAllocated()
	}

	device.ID = id
	if err := s.store.Insert(ctx, device); err != nil {
		device.ID = ""
		s.record(entities.AuditEventCreate, "device_create", kind, id, err)
		return "", err
	}

	log.Printf("[DEVICES] Created %s %s", kind.DisplayName(), id)
	s.record(entities.AuditEventCreate, "device_create", kind, id, nil)

	if entities.CrossedLowBattery(nil, device) {
		s.notifyLowBattery(ctx, device)
	}
	return id, nil
}

// Update validates the device and writes it guarded by device.Version.
// devices.ErrNotFoundOrConflict is returned unchanged when the id is unknown
// or the version is stale.
func (s *DeviceService) Update(ctx context.Context, device *entities.Device) error {
	kind := device.Kind()
	id := ""
	if device != nil {
		id = device.ID
	}

	if err := s.validator.Validate(device); err != nil {
		s.record(entities.AuditEventUpdate, "device_update", kind, id, err)
		return err
	}

	// Only used to decide whether the update crosses the low battery line.
	before, err := s.store.GetByID(ctx, id)
	if err != nil {
		log.Printf("[DEVICES] Could not read %s before update: %v", id, err)
		before = nil
	}

	if err := s.store.Update(ctx, device); err != nil {
		s.record(entities.AuditEventUpdate, "device_update", kind, id, err)
		return err
	}

	s.record(entities.AuditEventUpdate, "device_update", kind, id, nil)

	if entities.CrossedLowBattery(before, device) {
		s.notifyLowBattery(ctx, device)
	}
	return nil
}

// Delete removes the device and its kind-specific row.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	kind, _ := entities.KindFromID(id)

	removed, err := s.store.Delete(ctx, id)
	if err == nil && !removed {
		err = ErrNotFound
	}
	s.record(entities.AuditEventDelete, "device_delete", kind, id, err)
	if err != nil {
		return err
	}

	log.Printf("[DEVICES] Deleted %s", id)
	return nil
}

// GetAll returns the parent-only summary of every device.
func (s *DeviceService) GetAll(ctx context.Context) ([]entities.DeviceSummary, error) {
	return s.store.GetAll(ctx)
}

// GetByID returns the full device or ErrNotFound.
func (s *DeviceService) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	device, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrNotFound
	}
	return device, nil
}

// TurnOn applies the power-on rule of the device's kind and stores the result
// guarded by the caller's version. Power rule violations are returned as
// entities.ErrMissingOperatingSystem or entities.ErrBatteryTooLow.
func (s *DeviceService) TurnOn(ctx context.Context, id, version string) (*entities.Device, error) {
	return s.power(ctx, "device_turn_on", id, version, func(device *entities.Device, alerts *pendingAlerts) error {
		return device.TurnOn(ctx, alerts)
	})
}

// TurnOff disables the device, guarded by the caller's version.
func (s *DeviceService) TurnOff(ctx context.Context, id, version string) (*entities.Device, error) {
	return s.power(ctx, "device_turn_off", id, version, func(device *entities.Device, _ *pendingAlerts) error {
		device.TurnOff()
		return nil
	})
}

func (s *DeviceService) power(ctx context.Context, action, id, version string, apply func(*entities.Device, *pendingAlerts) error) (*entities.Device, error) {
	kind, _ := entities.KindFromID(id)

	device, err := s.GetByID(ctx, id)
	if err != nil {
		s.record(entities.AuditEventPower, action, kind, id, err)
		return nil, err
	}
	device.Version = version

	alerts := &pendingAlerts{}
	if err := apply(device, alerts); err != nil {
		s.record(entities.AuditEventPower, action, kind, id, err)
		return nil, err
	}
	if err := s.validator.Validate(device); err != nil {
		s.record(entities.AuditEventPower, action, kind, id, err)
		return nil, err
	}

	if err := s.store.Update(ctx, device); err != nil {
		s.record(entities.AuditEventPower, action, kind, id, err)
		return nil, err
	}
	s.record(entities.AuditEventPower, action, kind, id, nil)

	// Alerts are only delivered once the new state is committed.
	for _, alert := range alerts.levels {
		s.deliver(ctx, id, alert)
	}
	return device, nil
}

// Stats returns the number of stored devices per kind.
func (s *DeviceService) Stats(ctx context.Context) (map[entities.Kind]int64, error) {
	return s.store.Count(ctx)
}

func (s *DeviceService) notifyLowBattery(ctx context.Context, device *entities.Device) {
	sw, ok := device.Details.(*entities.Smartwatch)
	if !ok {
		return
	}
	s.deliver(ctx, device.ID, sw.BatteryLevel)
}

func (s *DeviceService) deliver(ctx context.Context, id string, level int) {
	log.Printf("[DEVICES] %s battery level is low. Current level is: %d%%", id, level)
	if s.notifier != nil {
		s.notifier.NotifyLowBattery(ctx, id, level)
	}
}

func (s *DeviceService) record(eventType entities.AuditEventType, action string, kind entities.Kind, id string, err error) {
	status, outcome := classify(err)

	var storageErr *devices.StorageError
	if errors.As(err, &storageErr) {
		log.Printf("[DEVICES] %s %s failed: %v", action, id, err)
	}

	if s.audit != nil {
		s.audit.LogDevice(eventType, action, kind, id, status, err)
	}
	if s.metrics != nil {
		s.metrics.DeviceOperation(action, string(kind), outcome)
	}
}

// classify maps an operation error onto an audit status and a metrics outcome.
func classify(err error) (entities.AuditStatus, string) {
	switch {
	case err == nil:
		return entities.AuditStatusSuccess, metrics.OutcomeSuccess
	case errors.Is(err, validation.ErrInvalidDevice),
		errors.Is(err, entities.ErrMissingOperatingSystem),
		errors.Is(err, entities.ErrBatteryTooLow),
		errors.Is(err, devices.ErrDuplicateID):
		return entities.AuditStatusRejected, metrics.OutcomeRejected
	case errors.Is(err, devices.ErrNotFoundOrConflict):
		return entities.AuditStatusRejected, metrics.OutcomeConflict
	case errors.Is(err, ErrNotFound):
		return entities.AuditStatusRejected, metrics.OutcomeNotFound
	}
	return entities.AuditStatusFailed, metrics.OutcomeError
}

// pendingAlerts holds low battery alerts raised by a domain rule until the
// state that raised them has been stored.
type pendingAlerts struct {
	levels []int
}

func (p *pendingAlerts) NotifyLowBattery(_ context.Context, _ string, level int) {
	p.levels = append(p.levels, level)
}
