package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/devicecatalog/internal/database"
	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/identifiers"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

type mockNotifier struct {
	mu     sync.Mutex
	alerts []string
	levels []int
}

func (m *mockNotifier) NotifyLowBattery(_ context.Context, deviceID string, level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, deviceID)
	m.levels = append(m.levels, level)
}

type auditCall struct {
	Action   string
	DeviceID string
	Status   entities.AuditStatus
}

type mockAudit struct {
	calls []auditCall
}

func (m *mockAudit) LogDevice(_ entities.AuditEventType, action string, _ entities.Kind, deviceID string, status entities.AuditStatus, _ error) {
	m.calls = append(m.calls, auditCall{Action: action, DeviceID: deviceID, Status: status})
}

func (m *mockAudit) last() auditCall {
	if len(m.calls) == 0 {
		return auditCall{}
	}
	return m.calls[len(m.calls)-1]
}

type mockMetrics struct {
	outcomes  []string
	allocated int
}

func (m *mockMetrics) DeviceOperation(_, _, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) IDAllocated() {
	m.allocated++
}

type failingAllocator struct{}

func (failingAllocator) NextID(context.Context, entities.Kind) (string, error) {
	return "", identifiers.ErrAllocationExhausted
}

type fixture struct {
	svc      *DeviceService
	db       *gorm.DB
	notifier *mockNotifier
	audit    *mockAudit
	metrics  *mockMetrics
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "catalog.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := devices.NewRepository(db.DB)
	f := &fixture{
		db:       db.DB,
		notifier: &mockNotifier{},
		audit:    &mockAudit{},
		metrics:  &mockMetrics{},
	}
	f.svc = NewDeviceService(DeviceServiceConfig{
		Store:     repo,
		Validator: validation.NewValidator(),
		Allocator: identifiers.NewAllocator(repo, 0),
		Notifier:  f.notifier,
		Audit:     f.audit,
		Metrics:   f.metrics,
	})
	return f
}

func (f *fixture) countRows(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func watch(level int, enabled bool) *entities.Device {
	return &entities.Device{Name: "Watch", Enabled: enabled, Details: &entities.Smartwatch{BatteryLevel: level}}
}

func TestDeviceService_CreateAndGetByID(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		device *entities.Device
		prefix string
	}{
		{"personal computer", &entities.Device{Name: "Desk", Enabled: true, Details: &entities.PersonalComputer{OperatingSystem: "Linux"}}, "P-1"},
		{"smartwatch", watch(64, false), "SW-1"},
		{"embedded", &entities.Device{Name: "Pi", Details: &entities.Embedded{IPAddress: "10.1.2.3", NetworkName: "lab"}}, "ED-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := f.svc.Create(ctx, tt.device)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, id)

			got, err := f.svc.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.device.Name, got.Name)
			assert.Equal(t, tt.device.Enabled, got.Enabled)
			assert.Equal(t, tt.device.Details, got.Details)
			assert.Equal(t, tt.device.Version, got.Version)
			assert.Equal(t, auditCall{Action: "device_create", DeviceID: id, Status: entities.AuditStatusSuccess}, f.audit.last())
		})
	}

	assert.Equal(t, 3, f.metrics.allocated)
}

func TestDeviceService_Create_IgnoresCallerID(t *testing.T) {
	f := setupService(t)

	device := watch(50, false)
	device.ID = "SW-999"

	id, err := f.svc.Create(context.Background(), device)
	require.NoError(t, err)
	assert.Equal(t, "SW-1", id)
	assert.Equal(t, "SW-1", device.ID)
}

func TestDeviceService_AllocationReusesFreedIDs(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	for _, want := range []string{"SW-1", "SW-2", "SW-3"} {
		id, err := f.svc.Create(ctx, watch(50, false))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	require.NoError(t, f.svc.Delete(ctx, "SW-1"))

	id, err := f.svc.Create(ctx, watch(50, false))
	require.NoError(t, err)
	assert.Equal(t, "SW-1", id)

	id, err = f.svc.Create(ctx, watch(50, false))
	require.NoError(t, err)
	assert.Equal(t, "SW-4", id)
}

func TestDeviceService_Create_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		device *entities.Device
		reason validation.Reason
	}{
		{"battery above range", watch(101, false), validation.InvalidBattery},
		{"bad ip address", &entities.Device{Name: "Pi", Details: &entities.Embedded{IPAddress: "999.1.1.1", NetworkName: "lab"}}, validation.InvalidIPAddress},
		{"enabled pc without os", &entities.Device{Name: "Desk", Enabled: true, Details: &entities.PersonalComputer{}}, validation.MissingOperatingSystem},
		{"blank name", &entities.Device{Name: "  ", Details: &entities.PersonalComputer{OperatingSystem: "Linux"}}, validation.MissingName},
		{"nil device", nil, validation.MissingDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupService(t)

			id, err := f.svc.Create(context.Background(), tt.device)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.ErrorIs(t, err, validation.ErrInvalidDevice)

			var vErr *validation.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.reason, vErr.Reason)

			assert.Equal(t, int64(0), f.countRows(t, "devices"))
			assert.Equal(t, int64(0), f.countRows(t, "personal_computers"))
			assert.Equal(t, int64(0), f.countRows(t, "smartwatches"))
			assert.Equal(t, int64(0), f.countRows(t, "embedded_devices"))
			assert.Equal(t, entities.AuditStatusRejected, f.audit.last().Status)
			assert.Equal(t, 0, f.metrics.allocated)
		})
	}
}

func TestDeviceService_Create_DisabledPCWithoutOS(t *testing.T) {
	f := setupService(t)

	id, err := f.svc.Create(context.Background(), &entities.Device{Name: "Spare", Details: &entities.PersonalComputer{}})
	require.NoError(t, err)
	assert.Equal(t, "P-1", id)
}

func TestDeviceService_Create_AllocationFailure(t *testing.T) {
	f := setupService(t)
	f.svc.allocator = failingAllocator{}

	_, err := f.svc.Create(context.Background(), watch(50, false))
	assert.ErrorIs(t, err, identifiers.ErrAllocationExhausted)
	assert.Equal(t, int64(0), f.countRows(t, "devices"))
	assert.Equal(t, entities.AuditStatusFailed, f.audit.last().Status)
}

func TestDeviceService_Update_Versioning(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	device := watch(80, false)
	id, err := f.svc.Create(ctx, device)
	require.NoError(t, err)
	v1 := device.Version

	device.Name = "Renamed"
	require.NoError(t, f.svc.Update(ctx, device))
	v2 := device.Version
	assert.NotEqual(t, v1, v2)

	got, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, v2, got.Version)

	stale := watch(30, false)
	stale.ID = id
	stale.Version = v1
	err = f.svc.Update(ctx, stale)
	assert.ErrorIs(t, err, devices.ErrNotFoundOrConflict)
	assert.Equal(t, "conflict", f.metrics.outcomes[len(f.metrics.outcomes)-1])

	got, err = f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Details.(*entities.Smartwatch).BatteryLevel)
}

func TestDeviceService_Update_UnknownID(t *testing.T) {
	f := setupService(t)

	device := watch(50, false)
	device.ID = "SW-7"
	device.Version = "v"

	err := f.svc.Update(context.Background(), device)
	assert.ErrorIs(t, err, devices.ErrNotFoundOrConflict)
}

func TestDeviceService_Update_InvalidLeavesRowUntouched(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	device := watch(50, false)
	id, err := f.svc.Create(ctx, device)
	require.NoError(t, err)

	device.Details.(*entities.Smartwatch).BatteryLevel = 101
	err = f.svc.Update(ctx, device)
	assert.ErrorIs(t, err, validation.ErrInvalidDevice)

	got, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Details.(*entities.Smartwatch).BatteryLevel)
}

func TestDeviceService_Delete(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, &entities.Device{Name: "Pi", Details: &entities.Embedded{IPAddress: "10.0.0.1", NetworkName: "lab"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), f.countRows(t, "embedded_devices"))

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, int64(0), f.countRows(t, "embedded_devices"))

	err = f.svc.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceService_GetAll(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, watch(50, true))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &entities.Device{Name: "Desk", Details: &entities.PersonalComputer{}})
	require.NoError(t, err)

	all, err := f.svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P-1", all[0].ID)
	assert.Equal(t, "SW-1", all[1].ID)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[entities.KindSmartwatch])
	assert.Equal(t, int64(1), stats[entities.KindPersonalComputer])
}

func TestDeviceService_LowBatteryNotifications(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, watch(10, true))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, watch(10, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"SW-1"}, f.notifier.alerts)

	device := watch(50, true)
	id, err := f.svc.Create(ctx, device)
	require.NoError(t, err)
	assert.Len(t, f.notifier.alerts, 1)

	device.Details.(*entities.Smartwatch).BatteryLevel = 15
	require.NoError(t, f.svc.Update(ctx, device))
	assert.Equal(t, []string{"SW-1", id}, f.notifier.alerts)

	// Already low: no second alert.
	device.Details.(*entities.Smartwatch).BatteryLevel = 12
	require.NoError(t, f.svc.Update(ctx, device))
	assert.Len(t, f.notifier.alerts, 2)
}

func TestDeviceService_TurnOn(t *testing.T) {
	ctx := context.Background()

	t.Run("smartwatch spends battery and alerts", func(t *testing.T) {
		f := setupService(t)
		device := watch(25, false)
		id, err := f.svc.Create(ctx, device)
		require.NoError(t, err)

		on, err := f.svc.TurnOn(ctx, id, device.Version)
		require.NoError(t, err)
		assert.True(t, on.Enabled)
		assert.Equal(t, 15, on.Details.(*entities.Smartwatch).BatteryLevel)
		assert.NotEqual(t, device.Version, on.Version)
		assert.Equal(t, []int{15}, f.notifier.levels)

		got, err := f.svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.Equal(t, 15, got.Details.(*entities.Smartwatch).BatteryLevel)
	})

	t.Run("smartwatch battery too low", func(t *testing.T) {
		f := setupService(t)
		device := watch(10, false)
		id, err := f.svc.Create(ctx, device)
		require.NoError(t, err)

		_, err = f.svc.TurnOn(ctx, id, device.Version)
		assert.ErrorIs(t, err, entities.ErrBatteryTooLow)
		assert.Empty(t, f.notifier.levels)
	})

	t.Run("pc without operating system", func(t *testing.T) {
		f := setupService(t)
		device := &entities.Device{Name: "Desk", Details: &entities.PersonalComputer{}}
		id, err := f.svc.Create(ctx, device)
		require.NoError(t, err)

		_, err = f.svc.TurnOn(ctx, id, device.Version)
		assert.ErrorIs(t, err, entities.ErrMissingOperatingSystem)
	})

	t.Run("stale version conflicts without alert", func(t *testing.T) {
		f := setupService(t)
		device := watch(25, false)
		id, err := f.svc.Create(ctx, device)
		require.NoError(t, err)

		_, err = f.svc.TurnOn(ctx, id, "stale")
		assert.ErrorIs(t, err, devices.ErrNotFoundOrConflict)
		assert.Empty(t, f.notifier.levels)

		got, err := f.svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Equal(t, 25, got.Details.(*entities.Smartwatch).BatteryLevel)
	})

	t.Run("unknown device", func(t *testing.T) {
		f := setupService(t)
		_, err := f.svc.TurnOn(ctx, "ED-4", "v")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeviceService_TurnOff(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	device := &entities.Device{Name: "Pi", Enabled: true, Details: &entities.Embedded{IPAddress: "10.0.0.9", NetworkName: "lab"}}
	id, err := f.svc.Create(ctx, device)
	require.NoError(t, err)

	off, err := f.svc.TurnOff(ctx, id, device.Version)
	require.NoError(t, err)
	assert.False(t, off.Enabled)
	assert.Equal(t, auditCall{Action: "device_turn_off", DeviceID: id, Status: entities.AuditStatusSuccess}, f.audit.last())
}

func TestRequests_Device(t *testing.T) {
	create := CreateRequest{Kind: entities.KindEmbedded, Payload: DevicePayload{Name: "Pi", IPAddress: "10.0.0.1", NetworkName: "lab", BatteryLevel: 3}}
	device, err := create.Device()
	require.NoError(t, err)
	assert.Equal(t, &entities.Embedded{IPAddress: "10.0.0.1", NetworkName: "lab"}, device.Details)

	update := UpdateRequest{ID: "SW-2", Version: "v1", Payload: DevicePayload{Name: "W", BatteryLevel: 40}}
	device, err = update.Device()
	require.NoError(t, err)
	assert.Equal(t, "SW-2", device.ID)
	assert.Equal(t, "v1", device.Version)
	assert.Equal(t, entities.KindSmartwatch, device.Kind())

	_, err = CreateRequest{Kind: "XX"}.Device()
	assert.ErrorIs(t, err, validation.ErrInvalidDevice)
}
