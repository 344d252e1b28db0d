package sco

import "github.com/bthost/sco/hci/evt"

// Packet type bits of the synchronous connection commands [Vol 2, Part E,
// 7.1.26]. The 2-EV and 3-EV bits are exclusion bits: set means the EDR
// packet type shall NOT be used.
const (
	PacketTypeHV1    uint16 = 0x0001
	PacketTypeHV2    uint16 = 0x0002
	PacketTypeHV3    uint16 = 0x0004
	PacketTypeEV3    uint16 = 0x0008
	PacketTypeEV4    uint16 = 0x0010
	PacketTypeEV5    uint16 = 0x0020
	PacketTypeNo2EV3 uint16 = 0x0040
	PacketTypeNo3EV3 uint16 = 0x0080
	PacketTypeNo2EV5 uint16 = 0x0100
	PacketTypeNo3EV5 uint16 = 0x0200
)

// Voice settings [Vol 2, Part E, 6.12].
const (
	VoiceSettingCVSD        uint16 = 0x0060
	VoiceSettingTransparent uint16 = 0x0063
)

// Retransmission effort values of Setup Synchronous Connection.
const (
	RetransmissionNone     uint8 = 0x00
	RetransmissionPower    uint8 = 0x01
	RetransmissionQuality  uint8 = 0x02
	RetransmissionDontCare uint8 = 0xFF
)

// ConnectionParams is one candidate parameter set for a SCO or eSCO link,
// in the layout of the Setup Synchronous Connection parameter block.
type ConnectionParams struct {
	TransmitBandwidth    uint32
	ReceiveBandwidth     uint32
	MaxLatency           uint16
	VoiceSetting         uint16
	RetransmissionEffort uint8
	PacketType           uint16
}

// SupportsLinkType reports whether the candidate's packet types allow a
// link of the given type. SCO links use HV packets, eSCO links EV packets.
func (p ConnectionParams) SupportsLinkType(lt uint8) bool {
	switch lt {
	case evt.LinkTypeSCO:
		return p.PacketType&(PacketTypeHV1|PacketTypeHV2|PacketTypeHV3) != 0
	case evt.LinkTypeESCO:
		return p.PacketType&(PacketTypeEV3|PacketTypeEV4|PacketTypeEV5) != 0
	default:
		return false
	}
}

// Well-known parameter sets from the Hands-Free Profile, ordered here from
// most to least capable so they can be passed directly as a candidate list.

// ParamsD1 is the HFP D1 setting: SCO over HV3, CVSD.
func ParamsD1() ConnectionParams {
	return ConnectionParams{
		TransmitBandwidth:    8000,
		ReceiveBandwidth:     8000,
		MaxLatency:           0xFFFF,
		VoiceSetting:         VoiceSettingCVSD,
		RetransmissionEffort: RetransmissionDontCare,
		PacketType:           PacketTypeHV3 | PacketTypeHV1,
	}
}

// ParamsS1 is the HFP S1 safe setting: eSCO over EV3, CVSD.
func ParamsS1() ConnectionParams {
	return ConnectionParams{
		TransmitBandwidth:    8000,
		ReceiveBandwidth:     8000,
		MaxLatency:           0x0007,
		VoiceSetting:         VoiceSettingCVSD,
		RetransmissionEffort: RetransmissionPower,
		PacketType:           PacketTypeEV3 | PacketTypeNo2EV3 | PacketTypeNo3EV3 | PacketTypeNo2EV5 | PacketTypeNo3EV5,
	}
}

// ParamsS2 is the HFP S2 setting: 2-EV3, CVSD.
func ParamsS2() ConnectionParams {
	return ConnectionParams{
		TransmitBandwidth:    8000,
		ReceiveBandwidth:     8000,
		MaxLatency:           0x0007,
		VoiceSetting:         VoiceSettingCVSD,
		RetransmissionEffort: RetransmissionPower,
		PacketType:           PacketTypeEV3 | PacketTypeNo3EV3 | PacketTypeNo2EV5 | PacketTypeNo3EV5,
	}
}

// ParamsS3 is the HFP S3 setting: 2-EV3 with relaxed latency, CVSD.
func ParamsS3() ConnectionParams {
	p := ParamsS2()
	p.MaxLatency = 0x000A
	return p
}

// ParamsS4 is the HFP S4 setting: 2-EV3, quality retransmission.
func ParamsS4() ConnectionParams {
	p := ParamsS2()
	p.MaxLatency = 0x000C
	p.RetransmissionEffort = RetransmissionQuality
	return p
}

// DefaultOpenParams is a candidate list that tries eSCO settings from S4
// down and falls back to plain SCO.
func DefaultOpenParams() []ConnectionParams {
	return []ConnectionParams{ParamsS4(), ParamsS3(), ParamsS2(), ParamsS1(), ParamsD1()}
}
