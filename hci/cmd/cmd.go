// Package cmd defines the HCI commands used by this host, with their wire
// encoding: a 16-bit little-endian opcode, an 8-bit parameter length, and a
// fixed-layout little-endian parameter block.
package cmd

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Command is an HCI command with a fixed-size parameter block.
type Command interface {
	OpCode() int
	Len() int
	Marshal([]byte) error
}

// CommandRP is the return parameter block of a command, carried in the
// Command Complete event.
type CommandRP interface {
	Unmarshal(b []byte) error
}

func marshal(c Command, b []byte) error {
	buf := bytes.NewBuffer(b)
	buf.Reset()
	if buf.Cap() < c.Len() {
		return io.ErrShortBuffer
	}
	return binary.Write(buf, binary.LittleEndian, c)
}

func unmarshal(c CommandRP, b []byte) error {
	return binary.Read(bytes.NewBuffer(b), binary.LittleEndian, c)
}
