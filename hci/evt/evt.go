// Package evt provides read-only views over HCI event parameter blocks.
//
// Each event is a []byte holding the parameters of one event packet, after
// the 2-byte event header has been stripped. Accessors index directly into
// the block; callers are expected to have validated the declared parameter
// length against the packet before constructing a view.
package evt

import "encoding/binary"

// Event codes [Vol 2, Part E, 7.7].
const (
	ConnectionCompleteCode            = 0x03
	ConnectionRequestCode             = 0x04
	DisconnectionCompleteCode         = 0x05
	CommandCompleteCode               = 0x0E
	CommandStatusCode                 = 0x0F
	SynchronousConnectionCompleteCode = 0x2C
	LEMetaCode                        = 0x3E
)

// Link types carried by Connection Request and Synchronous Connection
// Complete events [Vol 2, Part E, 7.7.2, 7.7.35].
const (
	LinkTypeSCO  uint8 = 0x00
	LinkTypeACL  uint8 = 0x01
	LinkTypeESCO uint8 = 0x02
)

// CommandComplete implements Command Complete Event (0x0E) [Vol 2, Part E, 7.7.14].
type CommandComplete []byte

func (e CommandComplete) NumHCICommandPackets() uint8 { return e[0] }
func (e CommandComplete) CommandOpcode() uint16       { return binary.LittleEndian.Uint16(e[1:]) }
func (e CommandComplete) ReturnParameters() []byte    { return e[3:] }

// CommandStatus implements Command Status Event (0x0F) [Vol 2, Part E, 7.7.15].
type CommandStatus []byte

func (e CommandStatus) Status() uint8               { return e[0] }
func (e CommandStatus) NumHCICommandPackets() uint8 { return e[1] }
func (e CommandStatus) CommandOpcode() uint16       { return binary.LittleEndian.Uint16(e[2:]) }

// ConnectionRequest implements Connection Request Event (0x04) [Vol 2, Part E, 7.7.2].
type ConnectionRequest []byte

func (e ConnectionRequest) BDADDR() [6]byte {
	b := [6]byte{}
	copy(b[:], e)
	return b
}
func (e ConnectionRequest) ClassOfDevice() [3]byte {
	b := [3]byte{}
	copy(b[:], e[6:])
	return b
}
func (e ConnectionRequest) LinkType() uint8 { return e[9] }

// DisconnectionComplete implements Disconnection Complete Event (0x05) [Vol 2, Part E, 7.7.5].
type DisconnectionComplete []byte

func (e DisconnectionComplete) Status() uint8            { return e[0] }
func (e DisconnectionComplete) ConnectionHandle() uint16 { return binary.LittleEndian.Uint16(e[1:]) }
func (e DisconnectionComplete) Reason() uint8            { return e[3] }

// SynchronousConnectionComplete implements Synchronous Connection Complete
// Event (0x2C) [Vol 2, Part E, 7.7.35].
type SynchronousConnectionComplete []byte

func (e SynchronousConnectionComplete) Status() uint8 { return e[0] }
func (e SynchronousConnectionComplete) ConnectionHandle() uint16 {
	return binary.LittleEndian.Uint16(e[1:])
}
func (e SynchronousConnectionComplete) BDADDR() [6]byte {
	b := [6]byte{}
	copy(b[:], e[3:])
	return b
}
func (e SynchronousConnectionComplete) LinkType() uint8             { return e[9] }
func (e SynchronousConnectionComplete) TransmissionInterval() uint8 { return e[10] }
func (e SynchronousConnectionComplete) RetransmissionWindow() uint8 { return e[11] }
func (e SynchronousConnectionComplete) RXPacketLength() uint16 {
	return binary.LittleEndian.Uint16(e[12:])
}
func (e SynchronousConnectionComplete) TXPacketLength() uint16 {
	return binary.LittleEndian.Uint16(e[14:])
}
func (e SynchronousConnectionComplete) AirMode() uint8 { return e[16] }

// LEMeta is the envelope for LE Meta Event (0x3E) [Vol 2, Part E, 7.7.65];
// the subevent code selects the handler to dispatch to.
type LEMeta []byte

func (e LEMeta) SubeventCode() uint8 { return e[0] }
