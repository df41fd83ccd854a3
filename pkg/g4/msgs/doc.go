// Package msgs provides the G4 device message schemas and the packet codec.
package msgs

// Commands flow from host to device, messages from device to host.
// Both are protobuf encoded and wrapped by COBS framing on the wire:
//
//	payload = proto(Command | Message)
//	packet  = cobs(payload) 0x00
//
// Producer: G4 firmware (Message), host (Command)
// Consumer: host (Message), G4 firmware (Command)
