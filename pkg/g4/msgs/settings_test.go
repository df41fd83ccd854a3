package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettingValidate(t *testing.T) {
	testCases := []struct {
		name    string
		setting Setting
		valid   bool
	}{
		{"preset interval", Setting{Kind: SettingSamplingInterval, Value: 50}, true},
		{"non-preset interval", Setting{Kind: SettingSamplingInterval, Value: 30}, false},
		{"report interval min", Setting{Kind: SettingReportInterval, Value: 1 << 6}, true},
		{"report interval max", Setting{Kind: SettingReportInterval, Value: 1 << 18}, true},
		{"report interval too small", Setting{Kind: SettingReportInterval, Value: 1 << 5}, false},
		{"report interval not pow2", Setting{Kind: SettingReportInterval, Value: 100}, false},
		{"viewport", Setting{Kind: SettingViewport, Value: 1 << 10}, true},
		{"viewport too large", Setting{Kind: SettingViewport, Value: 1 << 19}, false},
		{"unknown", Setting{Value: 1}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.setting.Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, ErrInvalidSetting))
			}
		})
	}
}

func TestDurationToSampleBytes(t *testing.T) {
	s := &Settings{SamplingInterval: 10}
	// 128ms at 10us = 12800 samples = 1600 bytes.
	require.Equal(t, uint64(1600), s.DurationToSampleBytes(128))
	s.SamplingInterval = 200
	// 128ms at 200us = 640 samples = 80 bytes.
	require.Equal(t, uint64(80), s.DurationToSampleBytes(128))
	s.SamplingInterval = 20
	// 1ms at 20us = 50 samples, rounded up to 7 bytes.
	require.Equal(t, uint64(7), s.DurationToSampleBytes(1))
}

func TestSettingsApply(t *testing.T) {
	s := NewSettings()
	require.Equal(t, 0, s.FreqPresetIndex())

	require.NoError(t, s.Apply(&Setting{Kind: SettingSamplingInterval, Value: 100}))
	require.Equal(t, uint32(100), s.SamplingInterval)
	require.Equal(t, 3, s.FreqPresetIndex())
	require.Equal(t, SettingSamplingInterval, s.Pending.Kind)

	require.NoError(t, s.Apply(&Setting{Kind: SettingViewport, Value: 1 << 8}))
	require.Equal(t, uint64(320), s.SamplingWindow)
	require.Equal(t, uint64(2560), s.ViewportPoints())

	require.Error(t, s.Apply(&Setting{Kind: SettingReportInterval, Value: 3}))
	require.Equal(t, DefaultMinReportInterval, s.MinReportInterval)
	require.Equal(t, SettingViewport, s.Pending.Kind)
}

func TestSettingsClone(t *testing.T) {
	s := NewSettings()
	require.NoError(t, s.Apply(&Setting{Kind: SettingSamplingInterval, Value: 20}))
	c := s.Clone()
	c.Pending.Value = 200
	c.SamplingInterval = 200
	require.Equal(t, uint32(20), s.SamplingInterval)
	require.Equal(t, uint64(20), s.Pending.Value)
}

func TestSamples(t *testing.T) {
	msg := &Message{Hall: []byte{0x01, 0x82}}
	require.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1}, msg.Samples())
}
