package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Devices map[string]int64  `json:"devices,omitempty"`
}

type HealthController struct {
	db      Pinger
	devices DeviceService
	version string
}

func NewHealthController(db Pinger, devices DeviceService, version string) *HealthController {
	return &HealthController{
		db:      db,
		devices: devices,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	var counts map[string]int64
	if h.devices != nil && status == "healthy" {
		stats, err := h.devices.Stats(c.Request.Context())
		if err != nil {
			checks["devices"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["devices"] = "ok"
			counts = make(map[string]int64, len(stats))
			for kind, n := range stats {
				counts[string(kind)] = n
			}
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
		Devices: counts,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
