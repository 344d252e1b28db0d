package hci

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DeviceAddr is a BD_ADDR in wire order (least significant byte first), as
// it appears in HCI command and event parameter blocks.
type DeviceAddr [6]byte

// String returns the conventional colon-separated form, most significant
// byte first.
func (a DeviceAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// ParseAddr parses a colon-separated address into wire order.
func ParseAddr(s string) (DeviceAddr, error) {
	var a DeviceAddr
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 6 {
		return a, errors.Errorf("invalid address %q", s)
	}
	for i, p := range parts {
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return a, errors.Wrapf(err, "invalid address %q", s)
		}
		a[5-i] = b
	}
	return a, nil
}
