package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// CommandKind identifies a device-bound command.
type CommandKind int32

// Command kinds
const (
	CommandUnknown CommandKind = iota
	// CommandCheckState asks the device to echo its settings state.
	CommandCheckState
	// CommandConfigState pushes a settings snapshot to the device.
	CommandConfigState
)

// String implements fmt.Stringer.
func (k CommandKind) String() string {
	switch k {
	case CommandCheckState:
		return "CheckState"
	case CommandConfigState:
		return "ConfigState"
	}
	return fmt.Sprintf("Command(%d)", int32(k))
}

// Command is sent from host to device.
type Command struct {
	Kind   CommandKind `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Config *Settings   `protobuf:"bytes,2,opt,name=config,proto3" json:"config,omitempty"`
}

// CheckState creates a CheckState command.
func CheckState() *Command {
	return &Command{Kind: CommandCheckState}
}

// ConfigState creates a ConfigState command carrying settings.
func ConfigState(settings *Settings) *Command {
	return &Command{Kind: CommandConfigState, Config: settings}
}

// ProtoMessage implements proto.Message.
func (m *Command) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Command) Reset() { *m = Command{} }

// String implements proto.Message.
func (m *Command) String() string { return proto.CompactTextString(m) }

// Validate checks the command is well formed.
func (m *Command) Validate() error {
	switch m.Kind {
	case CommandCheckState:
		if m.Config != nil {
			return fmt.Errorf("%s: unexpected config", m.Kind)
		}
	case CommandConfigState:
		if m.Config == nil {
			return fmt.Errorf("%s: config required", m.Kind)
		}
	default:
		return &UnknownCommandError{Kind: m.Kind}
	}
	return nil
}

// Message is reported from device to host.
type Message struct {
	// Hall contains 8-bit sample words, one sample per bit.
	Hall []byte `protobuf:"bytes,1,opt,name=hall,proto3" json:"hall,omitempty"`
	// State is present when the device echoes its settings.
	State *SettingState `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Message) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Message) Reset() { *m = Message{} }

// String implements proto.Message.
func (m *Message) String() string { return proto.CompactTextString(m) }

// Samples expands sample words into one value (0 or 1) per bit,
// least significant bit first.
func (m *Message) Samples() []int {
	samples := make([]int, 0, len(m.Hall)*8)
	for _, word := range m.Hall {
		for i := uint(0); i < 8; i++ {
			samples = append(samples, int(word>>i)&1)
		}
	}
	return samples
}
