package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

func TestParseSetting(t *testing.T) {
	setting, err := ParseSetting("sampling", "50")
	require.NoError(t, err)
	require.Equal(t, msgs.SettingSamplingInterval, setting.Kind)
	require.EqualValues(t, 50, setting.Value)

	setting, err = ParseSetting("Refresh", "0x400")
	require.NoError(t, err)
	require.Equal(t, msgs.SettingReportInterval, setting.Kind)
	require.EqualValues(t, 1024, setting.Value)

	_, err = ParseSetting("viewport", "100")
	require.ErrorIs(t, err, msgs.ErrInvalidSetting)
	_, err = ParseSetting("speed", "1")
	require.Error(t, err)
	_, err = ParseSetting("report", "x")
	require.Error(t, err)
}

func TestPresetSetting(t *testing.T) {
	setting, err := PresetSetting("4")
	require.NoError(t, err)
	require.EqualValues(t, 200, setting.Value)
	_, err = PresetSetting("5")
	require.Error(t, err)
}

func TestFormatSettings(t *testing.T) {
	require.Equal(t, "100kHz", FormatFreq(10))
	require.Equal(t, "5kHz", FormatFreq(200))
	require.Equal(t,
		"sampling=10µs (100kHz) report=1024µs window=1600B (12800 points)",
		FormatSettings(msgs.NewSettings()))
}
