package cmd

// Disconnect implements Disconnect (0x01|0x0006) [Vol 2, Part E, 7.1.6].
type Disconnect struct {
	ConnectionHandle uint16
	Reason           uint8
}

func (c Disconnect) OpCode() int            { return 0x0406 }
func (c Disconnect) Len() int               { return 3 }
func (c Disconnect) Marshal(b []byte) error { return marshal(c, b) }

// SetupSynchronousConnection implements Setup Synchronous Connection
// (0x01|0x0028) [Vol 2, Part E, 7.1.26]. ConnectionHandle names the ACL
// link to the peer the synchronous link is added to.
type SetupSynchronousConnection struct {
	ConnectionHandle     uint16
	TransmitBandwidth    uint32
	ReceiveBandwidth     uint32
	MaxLatency           uint16
	VoiceSetting         uint16
	RetransmissionEffort uint8
	PacketType           uint16
}

func (c SetupSynchronousConnection) OpCode() int            { return 0x0428 }
func (c SetupSynchronousConnection) Len() int               { return 17 }
func (c SetupSynchronousConnection) Marshal(b []byte) error { return marshal(c, b) }

// AcceptSynchronousConnectionRequest implements Accept Synchronous
// Connection Request (0x01|0x0029) [Vol 2, Part E, 7.1.27].
type AcceptSynchronousConnectionRequest struct {
	BDADDR               [6]byte
	TransmitBandwidth    uint32
	ReceiveBandwidth     uint32
	MaxLatency           uint16
	VoiceSetting         uint16
	RetransmissionEffort uint8
	PacketType           uint16
}

func (c AcceptSynchronousConnectionRequest) OpCode() int            { return 0x0429 }
func (c AcceptSynchronousConnectionRequest) Len() int               { return 21 }
func (c AcceptSynchronousConnectionRequest) Marshal(b []byte) error { return marshal(c, b) }

// RejectSynchronousConnectionRequest implements Reject Synchronous
// Connection Request (0x01|0x002A) [Vol 2, Part E, 7.1.28].
type RejectSynchronousConnectionRequest struct {
	BDADDR [6]byte
	Reason uint8
}

func (c RejectSynchronousConnectionRequest) OpCode() int            { return 0x042A }
func (c RejectSynchronousConnectionRequest) Len() int               { return 7 }
func (c RejectSynchronousConnectionRequest) Marshal(b []byte) error { return marshal(c, b) }
