package cmd

// Reset implements Reset (0x03|0x0003) [Vol 2, Part E, 7.3.2].
type Reset struct{}

func (c Reset) OpCode() int            { return 0x0C03 }
func (c Reset) Len() int               { return 0 }
func (c Reset) Marshal(b []byte) error { return nil }

// ResetRP ...
type ResetRP struct {
	Status uint8
}

// Unmarshal ...
func (c *ResetRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// SetEventMask implements Set Event Mask (0x03|0x0001) [Vol 2, Part E, 7.3.1].
type SetEventMask struct {
	EventMask uint64
}

func (c SetEventMask) OpCode() int            { return 0x0C01 }
func (c SetEventMask) Len() int               { return 8 }
func (c SetEventMask) Marshal(b []byte) error { return marshal(c, b) }

// SetEventMaskRP ...
type SetEventMaskRP struct {
	Status uint8
}

// Unmarshal ...
func (c *SetEventMaskRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// ReadBDADDR implements Read BD_ADDR (0x04|0x0009) [Vol 2, Part E, 7.4.6].
type ReadBDADDR struct{}

func (c ReadBDADDR) OpCode() int            { return 0x1009 }
func (c ReadBDADDR) Len() int               { return 0 }
func (c ReadBDADDR) Marshal(b []byte) error { return nil }

// ReadBDADDRRP ...
type ReadBDADDRRP struct {
	Status uint8
	BDADDR [6]uint8
}

// Unmarshal ...
func (c *ReadBDADDRRP) Unmarshal(b []byte) error { return unmarshal(c, b) }
