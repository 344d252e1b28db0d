//go:build linux

package hci

import (
	"io"

	"github.com/bthost/sco/hci/socket"
)

func openSocket(id int) (io.ReadWriteCloser, error) {
	return socket.NewSocket(id)
}
