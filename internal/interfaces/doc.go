// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Device Pipeline
//
//   - DeviceStore: parent/child persistence (internal/services/interfaces.go)
//   - DeviceValidator: per-kind field rules (internal/services/interfaces.go)
//   - IDAllocator: "<prefix><n>" identifiers (internal/services/interfaces.go)
//   - ExistenceChecker: id probing for the allocator (internal/identifiers/allocator.go)
//
// ## HTTP Boundary
//
//   - DeviceService: operations the controllers drive (internal/http/stores.go)
//   - AuditReader, RequestJournal, Pinger (internal/http/stores.go)
//
// ## Background Work
//
//   - LowBatteryNotifier: alerts raised by smartwatch rules (internal/entities/device.go)
//   - TaskEnqueuer, AlertPublisher, AlertAuditor, AlertMetrics (internal/tasks/low_battery.go)
//   - AuditEventCleaner (internal/tasks/cleanup_audit.go)
//
// # Adding a New Device Kind
//
//  1. Add the Kind constant and its prefix, table and display name in
//     internal/entities/device.go, plus a Details implementation.
//
//  2. Add a row type in internal/database/devices/rows.go and handle it in
//     Models, childRow, childUpdate and loadDetails.
//
//  3. Add the kind's rules to validation.Validator and its fields to
//     services.DevicePayload and the HTTP DTOs.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
