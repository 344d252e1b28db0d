package sco

import (
	"sync"

	"github.com/bthost/sco/hci"
	"github.com/bthost/sco/hci/cmd"
	"github.com/bthost/sco/hci/evt"
)

// Connection is an established SCO or eSCO link.
type Connection struct {
	n        *Negotiator
	hnd      uint16
	peer     hci.DeviceAddr
	linkType uint8
	once     sync.Once
}

// Handle returns the HCI connection handle of the link.
func (c *Connection) Handle() uint16 { return c.hnd }

// Peer returns the peer device address.
func (c *Connection) Peer() hci.DeviceAddr { return c.peer }

// LinkType reports evt.LinkTypeSCO or evt.LinkTypeESCO.
func (c *Connection) LinkType() uint8 { return c.linkType }

// Close unregisters the connection and asks the controller to disconnect
// the link. The Disconnection Complete event is not awaited.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		c.n.forgetConnection(c.hnd)
		_, err = c.n.cmdr.SendCommand(&cmd.Disconnect{
			ConnectionHandle: c.hnd,
			Reason:           byte(hci.ErrRemoteUser),
		}, evt.CommandStatusCode, nil, nil, nil)
	})
	return err
}
