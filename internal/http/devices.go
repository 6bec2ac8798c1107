package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/services"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// DeviceRequest is the JSON body accepted by create and update. Fields that
// do not belong to the device's kind are ignored.
type DeviceRequest struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Enabled         bool   `json:"enabled"`
	OperatingSystem string `json:"operatingSystem"`
	BatteryLevel    int    `json:"batteryLevel"`
	IPAddress       string `json:"ipAddress"`
	NetworkName     string `json:"networkName"`
	Version         string `json:"version,omitempty"`
}

func (r DeviceRequest) payload() services.DevicePayload {
	return services.DevicePayload{
		Name:            r.Name,
		Enabled:         r.Enabled,
		OperatingSystem: r.OperatingSystem,
		BatteryLevel:    r.BatteryLevel,
		IPAddress:       r.IPAddress,
		NetworkName:     r.NetworkName,
	}
}

// PowerRequest is the optional body of turn-on and turn-off.
type PowerRequest struct {
	Version string `json:"version"`
}

// DeviceResponse is the JSON form of a device. Kind-specific fields are only
// present for their kind.
type DeviceResponse struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Name            string  `json:"name"`
	Enabled         bool    `json:"enabled"`
	Version         string  `json:"version"`
	OperatingSystem *string `json:"operatingSystem,omitempty"`
	BatteryLevel    *int    `json:"batteryLevel,omitempty"`
	IPAddress       *string `json:"ipAddress,omitempty"`
	NetworkName     *string `json:"networkName,omitempty"`
}

func newDeviceResponse(d *entities.Device) DeviceResponse {
	resp := DeviceResponse{
		ID:      d.ID,
		Kind:    string(d.Kind()),
		Name:    d.Name,
		Enabled: d.Enabled,
		Version: d.Version,
	}
	switch details := d.Details.(type) {
	case *entities.PersonalComputer:
		resp.OperatingSystem = &details.OperatingSystem
	case *entities.Smartwatch:
		resp.BatteryLevel = &details.BatteryLevel
	case *entities.Embedded:
		resp.IPAddress = &details.IPAddress
		resp.NetworkName = &details.NetworkName
	}
	return resp
}

// DeviceSummaryResponse is the listing form of a device.
type DeviceSummaryResponse struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Version string `json:"version"`
}

type DevicesController struct {
	devices DeviceService
	journal RequestJournal
}

func NewDevicesController(devices DeviceService, journal RequestJournal) *DevicesController {
	return &DevicesController{devices: devices, journal: journal}
}

// List returns every device without kind-specific fields.
// GET /api/devices
func (dc *DevicesController) List(c *gin.Context) {
	all, err := dc.devices.GetAll(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list devices")
		return
	}

	resp := make([]DeviceSummaryResponse, 0, len(all))
	for _, d := range all {
		resp = append(resp, DeviceSummaryResponse{
			ID:      d.ID,
			Kind:    string(d.Kind),
			Name:    d.Name,
			Enabled: d.Enabled,
			Version: d.Version,
		})
	}
	c.JSON(http.StatusOK, gin.H{"devices": resp, "total": len(resp)})
}

// Get returns one device. The version is also sent as the ETag.
// GET /api/devices/:id
func (dc *DevicesController) Get(c *gin.Context) {
	device, err := dc.devices.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.respondDeviceError(c, err, "get device")
		return
	}

	c.Header("ETag", quoteETag(device.Version))
	c.JSON(http.StatusOK, newDeviceResponse(device))
}

// Create adds a device. Any id in the body is ignored.
// POST /api/devices
func (dc *DevicesController) Create(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	dc.journalRequest("create", req)

	kind, _ := entities.ParseKind(req.Kind)
	device, err := services.CreateRequest{Kind: kind, Payload: req.payload()}.Device()
	if err != nil {
		dc.respondDeviceError(c, err, "create device")
		return
	}

	id, err := dc.devices.Create(c.Request.Context(), device)
	if err != nil {
		dc.respondDeviceError(c, err, "create device")
		return
	}

	c.Header("Location", "/api/devices/"+id)
	c.Header("ETag", quoteETag(device.Version))
	respondCreated(c, gin.H{"id": id, "version": device.Version})
}

// Update replaces a device's fields. The version comes from the body or the
// If-Match header.
// PUT /api/devices/:id
func (dc *DevicesController) Update(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	dc.journalRequest("update", req)

	id := c.Param("id")
	idKind, _ := entities.KindFromID(id)

	kind := idKind
	if req.Kind != "" {
		parsed, ok := entities.ParseKind(req.Kind)
		if !ok {
			respondValidation(c, string(validation.UnknownDeviceKind), "kind")
			return
		}
		if parsed != idKind {
			respondBadRequest(c, "kind does not match device id")
			return
		}
		kind = parsed
	}

	device, err := services.UpdateRequest{
		ID:      id,
		Kind:    kind,
		Version: versionFrom(c, req.Version),
		Payload: req.payload(),
	}.Device()
	if err != nil {
		dc.respondDeviceError(c, err, "update device")
		return
	}

	if err := dc.devices.Update(c.Request.Context(), device); err != nil {
		dc.respondDeviceError(c, err, "update device")
		return
	}

	c.Header("ETag", quoteETag(device.Version))
	c.JSON(http.StatusOK, gin.H{"id": device.ID, "version": device.Version})
}

// Delete removes a device.
// DELETE /api/devices/:id
func (dc *DevicesController) Delete(c *gin.Context) {
	if err := dc.devices.Delete(c.Request.Context(), c.Param("id")); err != nil {
		dc.respondDeviceError(c, err, "delete device")
		return
	}
	c.Status(http.StatusNoContent)
}

// TurnOn switches a device on.
// POST /api/devices/:id/turn-on
func (dc *DevicesController) TurnOn(c *gin.Context) {
	dc.power(c, true)
}

// TurnOff switches a device off.
// POST /api/devices/:id/turn-off
func (dc *DevicesController) TurnOff(c *gin.Context) {
	dc.power(c, false)
}

func (dc *DevicesController) power(c *gin.Context, on bool) {
	var req PowerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	version := versionFrom(c, req.Version)
	if version == "" {
		respondBadRequest(c, "version is required")
		return
	}

	var (
		device *entities.Device
		err    error
	)
	if on {
		device, err = dc.devices.TurnOn(c.Request.Context(), c.Param("id"), version)
	} else {
		device, err = dc.devices.TurnOff(c.Request.Context(), c.Param("id"), version)
	}
	if err != nil {
		dc.respondDeviceError(c, err, "power device")
		return
	}

	c.Header("ETag", quoteETag(device.Version))
	c.JSON(http.StatusOK, newDeviceResponse(device))
}

// respondDeviceError maps service outcomes onto status codes.
func (dc *DevicesController) respondDeviceError(c *gin.Context, err error, context string) {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondValidation(c, string(vErr.Reason), vErr.Field)
	case errors.Is(err, services.ErrNotFound):
		respondNotFound(c, "device")
	case errors.Is(err, devices.ErrNotFoundOrConflict):
		respondConflict(c, "not_found_or_conflict", "device not found or modified by someone else")
	case errors.Is(err, devices.ErrDuplicateID):
		respondConflict(c, "duplicate_id", "device id already exists")
	case errors.Is(err, entities.ErrMissingOperatingSystem),
		errors.Is(err, entities.ErrBatteryTooLow):
		respondError(c, http.StatusUnprocessableEntity, "power_rule", err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

func (dc *DevicesController) journalRequest(operation string, req DeviceRequest) {
	if dc.journal == nil {
		return
	}
	if _, err := dc.journal.SaveJSON(operation, req); err != nil {
		log.Printf("Failed to journal %s request: %v", operation, err)
	}
}

// versionFrom prefers the body's version and falls back to If-Match.
func versionFrom(c *gin.Context, bodyVersion string) string {
	if bodyVersion != "" {
		return bodyVersion
	}
	return strings.Trim(strings.TrimPrefix(c.GetHeader("If-Match"), "W/"), `"`)
}

func quoteETag(version string) string {
	return `"` + version + `"`
}
