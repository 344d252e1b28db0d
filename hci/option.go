package hci

import "io"

// An Option is a configuration function, which configures the device.
type Option func(*HCI) error

// OptDeviceID sets the HCI device ID to open. -1 selects the first usable
// device.
func OptDeviceID(id int) Option {
	return func(h *HCI) error {
		h.id = id
		return nil
	}
}

// OptTransport injects the channel to the controller instead of opening a
// device socket. Used by tests and alternate transports.
func OptTransport(rwc io.ReadWriteCloser) Option {
	return func(h *HCI) error {
		h.skt = rwc
		return nil
	}
}

// OptDispatcher sets the default execution context for callbacks whose
// caller did not supply one.
func OptDispatcher(d Dispatcher) Option {
	return func(h *HCI) error {
		h.disp = d
		return nil
	}
}
