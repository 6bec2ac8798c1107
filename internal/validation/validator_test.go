package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Reason
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		device *entities.Device
		want   Reason
	}{
		{"nil device", nil, MissingDevice},
		{"blank name", &entities.Device{Name: "   ", Details: &entities.Smartwatch{BatteryLevel: 50}}, MissingName},
		{"battery above range", &entities.Device{Name: "watch", Details: &entities.Smartwatch{BatteryLevel: 101}}, InvalidBattery},
		{"battery below range", &entities.Device{Name: "watch", Details: &entities.Smartwatch{BatteryLevel: -1}}, InvalidBattery},
		{"enabled pc without os", &entities.Device{Name: "pc", Enabled: true, Details: &entities.PersonalComputer{}}, MissingOperatingSystem},
		{"enabled pc with blank os", &entities.Device{Name: "pc", Enabled: true, Details: &entities.PersonalComputer{OperatingSystem: "  "}}, MissingOperatingSystem},
		{"embedded bad ip", &entities.Device{Name: "ed", Details: &entities.Embedded{IPAddress: "999.1.1.1", NetworkName: "lab"}}, InvalidIPAddress},
		{"embedded missing network", &entities.Device{Name: "ed", Details: &entities.Embedded{IPAddress: "10.0.0.1", NetworkName: " "}}, MissingNetworkName},
		{"no details", &entities.Device{Name: "mystery"}, UnknownDeviceKind},
		{"typed nil details", &entities.Device{Name: "mystery", Details: (*entities.Smartwatch)(nil)}, UnknownDeviceKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.device)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDevice)
			assert.Equal(t, tt.want, reasonOf(t, err))
		})
	}
}

func TestValidator_NameCheckedBeforeKindRules(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&entities.Device{Details: &entities.Smartwatch{BatteryLevel: 500}})
	assert.Equal(t, MissingName, reasonOf(t, err))
}

func TestValidator_AcceptsValidDevices(t *testing.T) {
	v := NewValidator()

	valid := []*entities.Device{
		{Name: "laptop", Enabled: true, Details: &entities.PersonalComputer{OperatingSystem: "Linux"}},
		{Name: "spare laptop", Enabled: false, Details: &entities.PersonalComputer{}},
		{Name: "watch", Enabled: true, Details: &entities.Smartwatch{BatteryLevel: 0}},
		{Name: "watch", Details: &entities.Smartwatch{BatteryLevel: 100}},
		{Name: "controller", Details: &entities.Embedded{IPAddress: "192.168.1.44", NetworkName: "MD Ltd. Wifi-1"}},
	}

	for _, d := range valid {
		assert.NoError(t, v.Validate(d), d.Name)
	}
}

func TestIsValidIPAddress(t *testing.T) {
	for _, ip := range []string{"0.0.0.0", "255.255.255.255", "10.1.20.199", "1.2.3.4"} {
		assert.True(t, IsValidIPAddress(ip), ip)
	}
	for _, ip := range []string{"", "999.1.1.1", "256.1.1.1", "1.2.3", "1.2.3.4.5", "a.b.c.d", "1.2.3.4."} {
		assert.False(t, IsValidIPAddress(ip), ip)
	}
}
