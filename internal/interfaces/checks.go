package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/devicecatalog/internal/audit"
	"github.com/mrlokans/devicecatalog/internal/database"
	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/http"
	"github.com/mrlokans/devicecatalog/internal/identifiers"
	"github.com/mrlokans/devicecatalog/internal/metrics"
	"github.com/mrlokans/devicecatalog/internal/notify"
	"github.com/mrlokans/devicecatalog/internal/services"
	"github.com/mrlokans/devicecatalog/internal/tasks"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// DeviceStore implementations
var _ services.DeviceStore = (*devices.Repository)(nil)

// ExistenceChecker implementations
var _ identifiers.ExistenceChecker = (*devices.Repository)(nil)

// Pinger implementations
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Device Service
// =============================================================================

var _ services.DeviceValidator = (*validation.Validator)(nil)
var _ services.IDAllocator = (*identifiers.Allocator)(nil)
var _ services.MetricsRecorder = (*metrics.Recorder)(nil)
var _ http.DeviceService = (*services.DeviceService)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.AuditLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.RequestJournal = (*audit.Journal)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.AlertAuditor = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ entities.LowBatteryNotifier = (*tasks.LowBatteryNotifier)(nil)
var _ tasks.TaskEnqueuer = (*tasks.Client)(nil)
var _ tasks.AlertPublisher = (*notify.Publisher)(nil)
var _ tasks.AlertMetrics = (*metrics.Recorder)(nil)
