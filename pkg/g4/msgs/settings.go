package msgs

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/golang/protobuf/proto"
)

// FreqPresets are the sampling intervals (µs) the firmware supports.
var FreqPresets = [...]uint32{10, 20, 50, 100, 200}

// Report interval bounds, as powers of two in µs.
const (
	MinReportIntervalLog2 = 6
	MaxReportIntervalLog2 = 18
)

// Viewport bounds, as powers of two in ms.
const (
	MinViewportLog2 = 7
	MaxViewportLog2 = 18
)

// Defaults for a freshly created Settings.
const (
	DefaultSamplingInterval  uint32 = 10
	DefaultMinReportInterval uint64 = 1 << 10
	DefaultViewportMillis    uint64 = 1 << MinViewportLog2
)

// ErrInvalidSetting indicates a setting value out of the supported range.
var ErrInvalidSetting = errors.New("invalid setting")

// SettingKind identifies which setting a Setting changes.
type SettingKind int32

// Setting kinds
const (
	SettingUnknown SettingKind = iota
	SettingSamplingInterval
	SettingReportInterval
	SettingViewport
)

// String implements fmt.Stringer.
func (k SettingKind) String() string {
	switch k {
	case SettingSamplingInterval:
		return "sampling-interval"
	case SettingReportInterval:
		return "report-interval"
	case SettingViewport:
		return "viewport"
	}
	return fmt.Sprintf("setting(%d)", int32(k))
}

// Setting is a single setting change requested by the host.
// Value is in µs for intervals and ms for the viewport.
type Setting struct {
	Kind  SettingKind `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Value uint64      `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Setting) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Setting) Reset() { *m = Setting{} }

// String implements proto.Message.
func (m *Setting) String() string { return proto.CompactTextString(m) }

// Validate checks the value against the supported range of its kind.
func (m *Setting) Validate() error {
	switch m.Kind {
	case SettingSamplingInterval:
		for _, val := range FreqPresets {
			if uint64(val) == m.Value {
				return nil
			}
		}
	case SettingReportInterval:
		if isPow2In(m.Value, MinReportIntervalLog2, MaxReportIntervalLog2) {
			return nil
		}
	case SettingViewport:
		if isPow2In(m.Value, MinViewportLog2, MaxViewportLog2) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%d", ErrInvalidSetting, m.Kind, m.Value)
}

// Settings is the device configuration snapshot.
type Settings struct {
	// SamplingInterval is one of FreqPresets, in µs.
	SamplingInterval uint32 `protobuf:"varint,1,opt,name=sampling_interval,proto3" json:"sampling_interval,omitempty"`
	// MinReportInterval is a power of two, in µs.
	MinReportInterval uint64 `protobuf:"varint,2,opt,name=min_report_interval,proto3" json:"min_report_interval,omitempty"`
	// SamplingWindow is the number of sample bytes the device keeps.
	SamplingWindow uint64 `protobuf:"varint,3,opt,name=sampling_window,proto3" json:"sampling_window,omitempty"`
	// Pending is the last change queued for the device.
	Pending *Setting `protobuf:"bytes,4,opt,name=pending,proto3" json:"pending,omitempty"`
}

// NewSettings creates Settings with defaults.
func NewSettings() *Settings {
	s := &Settings{
		SamplingInterval:  DefaultSamplingInterval,
		MinReportInterval: DefaultMinReportInterval,
	}
	s.SamplingWindow = s.DurationToSampleBytes(DefaultViewportMillis)
	return s
}

// ProtoMessage implements proto.Message.
func (m *Settings) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Settings) Reset() { *m = Settings{} }

// String implements proto.Message.
func (m *Settings) String() string { return proto.CompactTextString(m) }

// Clone returns a deep copy.
func (m *Settings) Clone() *Settings {
	return proto.Clone(m).(*Settings)
}

// DurationToSampleBytes converts a duration in ms to the number of sample
// bytes covering it at the current sampling interval. Each byte holds 8
// samples.
func (m *Settings) DurationToSampleBytes(millis uint64) uint64 {
	intv := uint64(m.SamplingInterval)
	if intv == 0 {
		intv = uint64(DefaultSamplingInterval)
	}
	samples := (millis*1000 + intv - 1) / intv
	return (samples + 7) / 8
}

// ViewportPoints returns the number of samples in the sampling window.
func (m *Settings) ViewportPoints() uint64 {
	return m.SamplingWindow * 8
}

// Apply validates and applies a setting change, recording it as pending.
func (m *Settings) Apply(s *Setting) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch s.Kind {
	case SettingSamplingInterval:
		m.SamplingInterval = uint32(s.Value)
	case SettingReportInterval:
		m.MinReportInterval = s.Value
	case SettingViewport:
		m.SamplingWindow = m.DurationToSampleBytes(s.Value)
	}
	m.Pending = &Setting{Kind: s.Kind, Value: s.Value}
	return nil
}

// FreqPresetIndex returns the index of the sampling interval in FreqPresets,
// or -1.
func (m *Settings) FreqPresetIndex() int {
	for n, val := range FreqPresets {
		if val == m.SamplingInterval {
			return n
		}
	}
	return -1
}

// SettingState is the settings state echoed back by the device.
type SettingState struct {
	Settings *Settings `protobuf:"bytes,1,opt,name=settings,proto3" json:"settings,omitempty"`
	// Accepted is set when the device applied the last ConfigState.
	Accepted bool `protobuf:"varint,2,opt,name=accepted,proto3" json:"accepted,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SettingState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SettingState) Reset() { *m = SettingState{} }

// String implements proto.Message.
func (m *SettingState) String() string { return proto.CompactTextString(m) }

func isPow2In(val uint64, minLog2, maxLog2 int) bool {
	if val == 0 || val&(val-1) != 0 {
		return false
	}
	n := bits.TrailingZeros64(val)
	return n >= minLog2 && n <= maxLog2
}
