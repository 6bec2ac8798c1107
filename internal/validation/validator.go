// Package validation enforces the per-kind field rules a device must satisfy
// before it is written.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

// Reason identifies which rule rejected a device.
type Reason string

const (
	MissingDevice          Reason = "missing_device"
	MissingName            Reason = "missing_name"
	InvalidBattery         Reason = "invalid_battery"
	MissingOperatingSystem Reason = "missing_operating_system"
	InvalidIPAddress       Reason = "invalid_ip_address"
	MissingNetworkName     Reason = "missing_network_name"
	UnknownDeviceKind      Reason = "unknown_device_kind"
)

// ErrInvalidDevice is matched by every *ValidationError via errors.Is.
var ErrInvalidDevice = errors.New("invalid device")

type ValidationError struct {
	Reason Reason
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid device: %s", e.Reason)
	}
	return fmt.Sprintf("invalid device: %s (%s)", e.Reason, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDevice
}

// Four octets 0-255, each optionally followed by a period.
var ipv4Pattern = regexp.MustCompile(`^((25[0-5]|(2[0-4]|1\d|[1-9]|)\d)\.?\b){4}$`)

// IsValidIPAddress reports whether s has the dotted-quad IPv4 shape.
func IsValidIPAddress(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return ipv4Pattern.MatchString(s)
}

// Validator checks devices. The zero value is ready to use.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate applies the rules in order and returns the first failure.
func (v *Validator) Validate(device *entities.Device) error {
	if device == nil {
		return &ValidationError{Reason: MissingDevice}
	}
	if strings.TrimSpace(device.Name) == "" {
		return &ValidationError{Reason: MissingName, Field: "name"}
	}

	switch details := device.Details.(type) {
	case *entities.Smartwatch:
		if details == nil {
			return &ValidationError{Reason: UnknownDeviceKind}
		}
		if details.BatteryLevel < 0 || details.BatteryLevel > 100 {
			return &ValidationError{Reason: InvalidBattery, Field: "batteryLevel"}
		}
	case *entities.PersonalComputer:
		if details == nil {
			return &ValidationError{Reason: UnknownDeviceKind}
		}
		if device.Enabled && strings.TrimSpace(details.OperatingSystem) == "" {
			return &ValidationError{Reason: MissingOperatingSystem, Field: "operatingSystem"}
		}
	case *entities.Embedded:
		if details == nil {
			return &ValidationError{Reason: UnknownDeviceKind}
		}
		if !IsValidIPAddress(details.IPAddress) {
			return &ValidationError{Reason: InvalidIPAddress, Field: "ipAddress"}
		}
		if strings.TrimSpace(details.NetworkName) == "" {
			return &ValidationError{Reason: MissingNetworkName, Field: "networkName"}
		}
	default:
		return &ValidationError{Reason: UnknownDeviceKind}
	}
	return nil
}
