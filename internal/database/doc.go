// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── devices/         # Device parent/child rows, transactional writes
//	└── audit/           # Audit event storage
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./devices.db")
//
//	deviceRepo := devices.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - devices.Repository: implements services.DeviceStore and identifiers.ExistenceChecker
//   - audit.Repository: backs audit.Service (the AuditEventCleaner and AuditReader)
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register its models in NewDatabase
//  5. Add compile-time interface check in internal/interfaces
package database
