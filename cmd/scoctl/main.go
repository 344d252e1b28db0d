package main

import (
	"fmt"
	"os"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/bthost/sco"
	"github.com/bthost/sco/hci"
	"github.com/bthost/sco/hci/cmd"
	"github.com/bthost/sco/hci/evt"
)

var log = logging.MustGetLogger("scoctl")

func main() {
	app := cli.NewApp()

	app.Name = "scoctl"
	app.Usage = "negotiate SCO/eSCO links over a raw HCI channel"
	app.Version = "0.1.0"
	app.Action = cli.ShowAppHelp
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "device, i",
			Value: -1,
			Usage: "HCI device id (-1 picks the first usable device)",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		lvl := logging.INFO
		if c.GlobalBool("verbose") {
			lvl = logging.DEBUG
		}
		backend := logging.AddModuleLevel(logging.NewLogBackend(os.Stderr, "", 0))
		backend.SetLevel(lvl, "")
		logging.SetBackend(backend)
		return nil
	}

	negotiationFlags := []cli.Flag{
		cli.UintFlag{Name: "handle", Usage: "ACL connection handle to the peer (required)"},
		cli.StringFlag{Name: "peer, p", Usage: "peer BD_ADDR, e.g. 00:1A:7D:DA:71:13 (required)"},
		cli.StringFlag{Name: "profile", Usage: "TOML candidate profile (default: HFP S4..D1)"},
		cli.DurationFlag{Name: "timeout, t", Value: 30 * time.Second, Usage: "negotiation timeout"},
	}

	app.Commands = []cli.Command{
		{
			Name:   "open",
			Usage:  "initiate a synchronous link to the peer",
			Action: func(c *cli.Context) error { return negotiate(c, true) },
			Flags:  negotiationFlags,
		},
		{
			Name:   "accept",
			Usage:  "wait for and accept the peer's synchronous connection request",
			Action: func(c *cli.Context) error { return negotiate(c, false) },
			Flags:  negotiationFlags,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func negotiate(c *cli.Context, initiator bool) error {
	peer, err := hci.ParseAddr(c.String("peer"))
	if err != nil {
		return err
	}
	if !c.IsSet("handle") {
		return errors.New("--handle is required")
	}
	params, err := loadProfile(c.String("profile"))
	if err != nil {
		return err
	}

	h, err := hci.NewHCI(hci.OptDeviceID(c.GlobalInt("device")))
	if err != nil {
		return err
	}
	if err := h.Init(); err != nil {
		return err
	}
	defer h.Close()
	if err := bringup(h); err != nil {
		return err
	}

	neg, err := sco.New(h, peer, uint16(c.Uint("handle")))
	if err != nil {
		return err
	}
	defer neg.Close()

	type outcome struct {
		res sco.Result
		err error
	}
	ch := make(chan outcome, 1)
	var handle sco.Handle
	if initiator {
		log.Infof("opening synchronous link to %s (%d candidates)", peer, len(params))
		handle = neg.OpenConnection(params, func(res sco.Result, err error) {
			ch <- outcome{res, err}
		})
	} else {
		log.Infof("awaiting synchronous connection request from %s", peer)
		handle = neg.AcceptConnection(params, func(res sco.Result, err error) {
			ch <- outcome{res, err}
		})
	}

	select {
	case o := <-ch:
		if o.err != nil {
			return o.err
		}
		lt := "SCO"
		if o.res.Conn.LinkType() == evt.LinkTypeESCO {
			lt = "eSCO"
		}
		fmt.Printf("%s link up: handle 0x%04X, candidate %d\n", lt, o.res.Conn.Handle(), o.res.ParamIndex)
		return nil
	case <-time.After(c.Duration("timeout")):
		handle.Cancel()
		return errors.New("negotiation timed out")
	}
}

// bringup resets the controller and widens the event mask so Connection
// Request and Synchronous Connection Complete events reach the host.
func bringup(h *hci.HCI) error {
	if err := h.Send(&cmd.Reset{}, nil); err != nil {
		return errors.Wrap(err, "reset")
	}

	rp := cmd.ReadBDADDRRP{}
	if err := h.Send(&cmd.ReadBDADDR{}, &rp); err != nil {
		return errors.Wrap(err, "read BD_ADDR")
	}
	a := rp.BDADDR
	log.Infof("local device %02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])

	if err := h.Send(&cmd.SetEventMask{EventMask: 0x3DBFF807FFFBFFFF}, nil); err != nil {
		return errors.Wrap(err, "set event mask")
	}
	return nil
}
