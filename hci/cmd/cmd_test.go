package cmd

import (
	"bytes"
	"testing"
)

func TestSetupSynchronousConnectionMarshal(t *testing.T) {
	c := SetupSynchronousConnection{
		ConnectionHandle:     0x0001,
		TransmitBandwidth:    8000,
		ReceiveBandwidth:     8000,
		MaxLatency:           0x000D,
		VoiceSetting:         0x0060,
		RetransmissionEffort: 0x02,
		PacketType:           0x0388,
	}
	b := make([]byte, c.Len())
	if err := c.Marshal(b); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := []byte{
		0x01, 0x00,
		0x40, 0x1F, 0x00, 0x00,
		0x40, 0x1F, 0x00, 0x00,
		0x0D, 0x00,
		0x60, 0x00,
		0x02,
		0x88, 0x03,
	}
	if !bytes.Equal(b, want) {
		t.Fatalf("marshaled [ % X ], want [ % X ]", b, want)
	}
}

func TestRejectSynchronousConnectionRequestMarshal(t *testing.T) {
	c := RejectSynchronousConnectionRequest{
		BDADDR: [6]byte{0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00},
		Reason: 0x0D,
	}
	b := make([]byte, c.Len())
	if err := c.Marshal(b); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := []byte{0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00, 0x0D}
	if !bytes.Equal(b, want) {
		t.Fatalf("marshaled [ % X ], want [ % X ]", b, want)
	}
}

func TestMarshalShortBuffer(t *testing.T) {
	c := Disconnect{ConnectionHandle: 0x0042, Reason: 0x13}
	if err := c.Marshal(make([]byte, c.Len()-1)); err == nil {
		t.Fatal("expected short buffer error")
	}
}

func TestReadBDADDRRPUnmarshal(t *testing.T) {
	rp := ReadBDADDRRP{}
	if err := rp.Unmarshal([]byte{0x00, 0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00}); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if rp.Status != 0x00 {
		t.Fatalf("status %#02x", rp.Status)
	}
	if rp.BDADDR != [6]uint8{0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00} {
		t.Fatalf("BDADDR % X", rp.BDADDR)
	}
}
