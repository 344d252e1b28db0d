//go:build !linux

package hci

import (
	"io"

	"github.com/pkg/errors"
)

func openSocket(id int) (io.ReadWriteCloser, error) {
	return nil, errors.New("hci: no device transport on this platform")
}
