package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

var settingNames = map[string]msgs.SettingKind{
	"sampling": msgs.SettingSamplingInterval,
	"intv":     msgs.SettingSamplingInterval,
	"report":   msgs.SettingReportInterval,
	"refresh":  msgs.SettingReportInterval,
	"viewport": msgs.SettingViewport,
	"view":     msgs.SettingViewport,
}

// ParseSetting parses a setting from a name and a value.
// Intervals are in µs and the viewport in ms.
func ParseSetting(name, value string) (*msgs.Setting, error) {
	kind, ok := settingNames[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", name)
	}
	val, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", value, err)
	}
	setting := &msgs.Setting{Kind: kind, Value: val}
	if err := setting.Validate(); err != nil {
		return nil, err
	}
	return setting, nil
}

// PresetSetting returns the sampling interval setting of preset index.
func PresetSetting(index string) (*msgs.Setting, error) {
	n, err := strconv.Atoi(index)
	if err != nil || n < 0 || n >= len(msgs.FreqPresets) {
		return nil, fmt.Errorf("preset must be 0..%d", len(msgs.FreqPresets)-1)
	}
	return &msgs.Setting{Kind: msgs.SettingSamplingInterval, Value: uint64(msgs.FreqPresets[n])}, nil
}

// FormatFreq formats the sampling frequency of an interval in µs.
func FormatFreq(intv uint32) string {
	if intv == 0 {
		return "-"
	}
	hz := 1e6 / float64(intv)
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'g', 4, 64) + "kHz"
	}
	return strconv.FormatFloat(hz, 'g', 4, 64) + "Hz"
}

// FormatSettings prints settings into friendly string for display.
func FormatSettings(s *msgs.Settings) string {
	text := fmt.Sprintf("sampling=%dµs (%s) report=%dµs window=%dB (%d points)",
		s.SamplingInterval, FormatFreq(s.SamplingInterval),
		s.MinReportInterval, s.SamplingWindow, s.ViewportPoints())
	if s.Pending != nil {
		text += fmt.Sprintf(" pending=%s:%d", s.Pending.Kind, s.Pending.Value)
	}
	return text
}
