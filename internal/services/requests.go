package services

import (
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// DevicePayload carries the caller-editable fields of every kind. Fields that
// do not belong to the requested kind are ignored.
type DevicePayload struct {
	Name            string
	Enabled         bool
	OperatingSystem string
	BatteryLevel    int
	IPAddress       string
	NetworkName     string
}

// CreateRequest asks for a new device of Kind.
type CreateRequest struct {
	Kind    entities.Kind
	Payload DevicePayload
}

// UpdateRequest replaces the fields of an existing device. Version must be the
// token returned by the last read or write the caller saw.
type UpdateRequest struct {
	ID      string
	Kind    entities.Kind
	Version string
	Payload DevicePayload
}

// Device builds the domain value for the request. An unknown kind is reported
// as a validation failure.
func (r CreateRequest) Device() (*entities.Device, error) {
	return r.Payload.build("", "", r.Kind)
}

// Device builds the domain value for the request. When Kind is empty it is
// recovered from the id prefix.
func (r UpdateRequest) Device() (*entities.Device, error) {
	kind := r.Kind
	if kind == "" {
		kind, _ = entities.KindFromID(r.ID)
	}
	return r.Payload.build(r.ID, r.Version, kind)
}

func (p DevicePayload) build(id, version string, kind entities.Kind) (*entities.Device, error) {
	device := &entities.Device{
		ID:      id,
		Name:    p.Name,
		Enabled: p.Enabled,
		Version: version,
	}

	switch kind {
	case entities.KindPersonalComputer:
		device.Details = &entities.PersonalComputer{OperatingSystem: p.OperatingSystem}
	case entities.KindSmartwatch:
		device.Details = &entities.Smartwatch{BatteryLevel: p.BatteryLevel}
	case entities.KindEmbedded:
		device.Details = &entities.Embedded{IPAddress: p.IPAddress, NetworkName: p.NetworkName}
	default:
		return nil, &validation.ValidationError{Reason: validation.UnknownDeviceKind, Field: "kind"}
	}
	return device, nil
}
