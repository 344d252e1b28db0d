package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/bthost/sco"
)

// profile is a TOML file holding an ordered candidate list, e.g.
//
//	[[candidate]]
//	transmit_bandwidth = 8000
//	receive_bandwidth = 8000
//	max_latency = 0x000C
//	voice_setting = 0x0060
//	retransmission_effort = 2
//	packet_type = 0x0388
type profile struct {
	Candidate []candidate `toml:"candidate"`
}

type candidate struct {
	TransmitBandwidth    uint32 `toml:"transmit_bandwidth"`
	ReceiveBandwidth     uint32 `toml:"receive_bandwidth"`
	MaxLatency           uint16 `toml:"max_latency"`
	VoiceSetting         uint16 `toml:"voice_setting"`
	RetransmissionEffort uint8  `toml:"retransmission_effort"`
	PacketType           uint16 `toml:"packet_type"`
}

// loadProfile reads a candidate list from path; an empty path yields the
// default HFP candidate list.
func loadProfile(path string) ([]sco.ConnectionParams, error) {
	if path == "" {
		return sco.DefaultOpenParams(), nil
	}
	var p profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, errors.Wrapf(err, "profile %s", path)
	}
	if len(p.Candidate) == 0 {
		return nil, errors.Errorf("profile %s: no candidates", path)
	}
	params := make([]sco.ConnectionParams, 0, len(p.Candidate))
	for _, c := range p.Candidate {
		params = append(params, sco.ConnectionParams{
			TransmitBandwidth:    c.TransmitBandwidth,
			ReceiveBandwidth:     c.ReceiveBandwidth,
			MaxLatency:           c.MaxLatency,
			VoiceSetting:         c.VoiceSetting,
			RetransmissionEffort: c.RetransmissionEffort,
			PacketType:           c.PacketType,
		})
	}
	return params, nil
}
