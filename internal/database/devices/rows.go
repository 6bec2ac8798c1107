package devices

import "github.com/mrlokans/devicecatalog/internal/entities"

// DeviceRow is the parent row shared by every kind.
type DeviceRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"size:256;not null"`
	IsEnabled  bool   `gorm:"not null"`
	RowVersion string `gorm:"size:36;not null"`
}

func (DeviceRow) TableName() string {
	return "devices"
}

// Child rows are keyed by the parent id and removed by ON DELETE CASCADE.

type PersonalComputerRow struct {
	DeviceID        string    `gorm:"primaryKey;size:64"`
	OperatingSystem string    `gorm:"size:256"`
	Device          DeviceRow `gorm:"foreignKey:DeviceID;references:ID;constraint:OnDelete:CASCADE"`
}

func (PersonalComputerRow) TableName() string {
	return entities.KindPersonalComputer.Table()
}

type SmartwatchRow struct {
	DeviceID     string    `gorm:"primaryKey;size:64"`
	BatteryLevel int       `gorm:"not null"`
	Device       DeviceRow `gorm:"foreignKey:DeviceID;references:ID;constraint:OnDelete:CASCADE"`
}

func (SmartwatchRow) TableName() string {
	return entities.KindSmartwatch.Table()
}

type EmbeddedRow struct {
	DeviceID    string    `gorm:"primaryKey;size:64"`
	IPAddress   string    `gorm:"size:15;not null"`
	NetworkName string    `gorm:"size:256;not null"`
	Device      DeviceRow `gorm:"foreignKey:DeviceID;references:ID;constraint:OnDelete:CASCADE"`
}

func (EmbeddedRow) TableName() string {
	return entities.KindEmbedded.Table()
}

// Models returns the tables owned by this package, parent first.
func Models() []any {
	return []any{&DeviceRow{}, &PersonalComputerRow{}, &SmartwatchRow{}, &EmbeddedRow{}}
}

func childRow(device *entities.Device) (any, error) {
	switch details := device.Details.(type) {
	case *entities.PersonalComputer:
		return &PersonalComputerRow{DeviceID: device.ID, OperatingSystem: details.OperatingSystem}, nil
	case *entities.Smartwatch:
		return &SmartwatchRow{DeviceID: device.ID, BatteryLevel: details.BatteryLevel}, nil
	case *entities.Embedded:
		return &EmbeddedRow{DeviceID: device.ID, IPAddress: details.IPAddress, NetworkName: details.NetworkName}, nil
	}
	return nil, ErrUnknownKind
}

// childUpdate returns the model and column values for the kind-specific update.
func childUpdate(device *entities.Device) (any, map[string]any, error) {
	switch details := device.Details.(type) {
	case *entities.PersonalComputer:
		return &PersonalComputerRow{}, map[string]any{"operating_system": details.OperatingSystem}, nil
	case *entities.Smartwatch:
		return &SmartwatchRow{}, map[string]any{"battery_level": details.BatteryLevel}, nil
	case *entities.Embedded:
		return &EmbeddedRow{}, map[string]any{"ip_address": details.IPAddress, "network_name": details.NetworkName}, nil
	}
	return nil, nil, ErrUnknownKind
}

func summaryFromRow(row DeviceRow) entities.DeviceSummary {
	kind, _ := entities.KindFromID(row.ID)
	return entities.DeviceSummary{
		ID:      row.ID,
		Kind:    kind,
		Name:    row.Name,
		Enabled: row.IsEnabled,
		Version: row.RowVersion,
	}
}
