package hci

// HCI Packet types
const (
	pktTypeCommand uint8 = 0x01
	pktTypeACLData uint8 = 0x02
	pktTypeSCOData uint8 = 0x03
	pktTypeEvent   uint8 = 0x04
	pktTypeVendor  uint8 = 0xFF
)

// Command packet header: 2-byte opcode + 1-byte parameter length.
// Event packet header: 1-byte event code + 1-byte parameter length.
const (
	cmdHdrLen = 3
	evtHdrLen = 2
)
