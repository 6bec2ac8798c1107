package http

import "net/http"

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Devices  DeviceService
	Database Pinger

	// Audit trail (optional)
	Audit   AuditReader
	Journal RequestJournal

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	// Application info
	Version string
}
