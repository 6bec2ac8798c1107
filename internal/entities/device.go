package entities

import (
	"context"
	"errors"
	"strings"
)

// Kind is the discriminator of the device sum type.
type Kind string

const (
	KindPersonalComputer Kind = "PC"
	KindSmartwatch       Kind = "SW"
	KindEmbedded         Kind = "ED"
)

const (
	// LowBatteryThreshold is the level under which an enabled smartwatch raises an alert.
	LowBatteryThreshold = 20

	// MinTurnOnBattery is the lowest level a smartwatch can be turned on with.
	MinTurnOnBattery = 11

	// TurnOnBatteryCost is deducted from a smartwatch every time it is turned on.
	TurnOnBatteryCost = 10
)

var (
	ErrMissingOperatingSystem = errors.New("personal computer has no operating system")
	ErrBatteryTooLow          = errors.New("battery level too low to turn on")
	ErrBatteryOutOfRange      = errors.New("battery level must be between 0 and 100")
)

// kindInfo holds everything that varies per device kind.
type kindInfo struct {
	Prefix      string
	Table       string
	DisplayName string
}

var kinds = map[Kind]kindInfo{
	KindPersonalComputer: {Prefix: "P-", Table: "personal_computers", DisplayName: "Personal computer"},
	KindSmartwatch:       {Prefix: "SW-", Table: "smartwatches", DisplayName: "Smartwatch"},
	KindEmbedded:         {Prefix: "ED-", Table: "embedded_devices", DisplayName: "Embedded device"},
}

// Kinds lists the known kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindPersonalComputer, KindSmartwatch, KindEmbedded}
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Prefix returns the identifier prefix for the kind, or "" for an unknown kind.
func (k Kind) Prefix() string {
	return kinds[k].Prefix
}

// Table returns the name of the child table holding the kind's fields.
func (k Kind) Table() string {
	return kinds[k].Table
}

func (k Kind) DisplayName() string {
	if info, ok := kinds[k]; ok {
		return info.DisplayName
	}
	return string(k)
}

// ParseKind accepts the wire tag ("SW") as well as a few long-form aliases
// ("smartwatch", "pc", "embedded").
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "personalcomputer", "personal_computer", "p":
		return KindPersonalComputer, true
	case "sw", "smartwatch", "watch":
		return KindSmartwatch, true
	case "ed", "embedded", "embeddeddevice":
		return KindEmbedded, true
	}
	return "", false
}

// KindFromID recovers the kind from an allocated identifier such as "SW-3".
func KindFromID(id string) (Kind, bool) {
	for _, k := range Kinds() {
		if strings.HasPrefix(id, k.Prefix()) {
			return k, true
		}
	}
	return "", false
}

// Details is the kind-specific payload of a Device. The set of
// implementations is closed to this package.
type Details interface {
	Kind() Kind
	sealed()
}

type PersonalComputer struct {
	OperatingSystem string `json:"operatingSystem"`
}

func (*PersonalComputer) Kind() Kind { return KindPersonalComputer }
func (*PersonalComputer) sealed()    {}

type Smartwatch struct {
	BatteryLevel int `json:"batteryLevel"`
}

func (*Smartwatch) Kind() Kind { return KindSmartwatch }
func (*Smartwatch) sealed()    {}

type Embedded struct {
	IPAddress   string `json:"ipAddress"`
	NetworkName string `json:"networkName"`
}

func (*Embedded) Kind() Kind { return KindEmbedded }
func (*Embedded) sealed()    {}

// Device is a catalog record. ID is empty until the allocator assigns one
// and Version is empty until the store has persisted the record.
type Device struct {
	ID      string
	Name    string
	Enabled bool
	// Version is the opaque optimistic-concurrency token issued by the store.
	Version string
	Details Details
}

// Kind returns the discriminator of the payload, or "" when the device has none.
func (d *Device) Kind() Kind {
	if d == nil || d.Details == nil {
		return ""
	}
	return d.Details.Kind()
}

// LowBatteryNotifier receives alerts for smartwatches running low.
type LowBatteryNotifier interface {
	NotifyLowBattery(ctx context.Context, deviceID string, level int)
}

// TurnOn applies the power-on rule of the device's kind.
func (d *Device) TurnOn(ctx context.Context, notifier LowBatteryNotifier) error {
	switch details := d.Details.(type) {
	case *PersonalComputer:
		if strings.TrimSpace(details.OperatingSystem) == "" {
			return ErrMissingOperatingSystem
		}
	case *Smartwatch:
		if details.BatteryLevel < MinTurnOnBattery {
			return ErrBatteryTooLow
		}
		details.BatteryLevel -= TurnOnBatteryCost
		d.Enabled = true
		if details.BatteryLevel < LowBatteryThreshold && notifier != nil {
			notifier.NotifyLowBattery(ctx, d.ID, details.BatteryLevel)
		}
		return nil
	}
	d.Enabled = true
	return nil
}

func (d *Device) TurnOff() {
	d.Enabled = false
}

// SetBatteryLevel changes a smartwatch's level and alerts when an enabled
// watch drops under LowBatteryThreshold. It is a no-op for other kinds.
func (d *Device) SetBatteryLevel(ctx context.Context, level int, notifier LowBatteryNotifier) error {
	sw, ok := d.Details.(*Smartwatch)
	if !ok {
		return nil
	}
	if level < 0 || level > 100 {
		return ErrBatteryOutOfRange
	}
	sw.BatteryLevel = level
	if d.Enabled && level < LowBatteryThreshold && notifier != nil {
		notifier.NotifyLowBattery(ctx, d.ID, level)
	}
	return nil
}

// CrossedLowBattery reports whether after is an enabled smartwatch under the
// threshold while before (possibly nil) was not in that state.
func CrossedLowBattery(before, after *Device) bool {
	if !isLowEnabledWatch(after) {
		return false
	}
	return !isLowEnabledWatch(before)
}

func isLowEnabledWatch(d *Device) bool {
	if d == nil || !d.Enabled {
		return false
	}
	sw, ok := d.Details.(*Smartwatch)
	return ok && sw != nil && sw.BatteryLevel < LowBatteryThreshold
}

// DeviceSummary is the parent-only projection returned by listings.
type DeviceSummary struct {
	ID      string
	Kind    Kind
	Name    string
	Enabled bool
	Version string
}
