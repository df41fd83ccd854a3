package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/g4link/pkg/link/cobs"
)

// Size limits of the wire format.
const (
	// MaxPacketSize bounds an encoded packet including its delimiter.
	MaxPacketSize = 1024
	// BufSize is the size of the host receive buffer.
	BufSize = 2048
)

// EncodeCommand encodes a command into a delimited packet.
func EncodeCommand(cmd *Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return encode(cmd)
}

// DecodeCommand decodes a packet into a command.
func DecodeCommand(pkt []byte) (*Command, error) {
	var cmd Command
	if err := decode(pkt, &cmd); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, &DecodeError{Size: len(pkt), Err: err}
	}
	return &cmd, nil
}

// EncodeMessage encodes a device message into a delimited packet.
func EncodeMessage(msg *Message) ([]byte, error) {
	return encode(msg)
}

// DecodeMessage decodes a packet into a device message.
func DecodeMessage(pkt []byte) (*Message, error) {
	var msg Message
	if err := decode(pkt, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func encode(msg proto.Message) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	pkt := cobs.Encode(data)
	if len(pkt) > MaxPacketSize {
		return nil, &PacketSizeError{Size: len(pkt)}
	}
	return pkt, nil
}

func decode(pkt []byte, msg proto.Message) error {
	if len(pkt) > MaxPacketSize {
		return &DecodeError{Size: len(pkt), Err: fmt.Errorf("exceeds %d bytes", MaxPacketSize)}
	}
	data, err := cobs.Decode(pkt)
	if err != nil {
		return &DecodeError{Size: len(pkt), Err: err}
	}
	if err = proto.Unmarshal(data, msg); err != nil {
		return &DecodeError{Size: len(pkt), Err: err}
	}
	return nil
}
