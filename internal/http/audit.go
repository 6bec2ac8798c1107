package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(audit AuditReader) *AuditController {
	return &AuditController{audit: audit}
}

// GetAuditEvents returns paginated audit events as JSON, optionally filtered
// by ?device=SW-1 or ?type=update.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c)

	var events []entities.AuditEvent
	var total int64
	var err error

	switch {
	case c.Query("device") != "":
		events, total, err = ac.audit.GetEventsForDevice(c.Query("device"), limit, offset)
	case c.Query("type") != "":
		events, total, err = ac.audit.GetEventsByType(entities.AuditEventType(c.Query("type")), limit, offset)
	default:
		events, total, err = ac.audit.GetEvents(limit, offset)
	}

	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, paginate(events, total, limit, offset))
}
