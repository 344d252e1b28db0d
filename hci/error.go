package hci

// ErrCommand is an HCI status code reported by the controller in Command
// Status and completion events [Vol 2, Part D, 1.3].
type ErrCommand byte

// Status codes this layer inspects or that controllers commonly return for
// synchronous connection commands.
const (
	StatusSuccess        ErrCommand = 0x00
	ErrUnknownCommand    ErrCommand = 0x01 // Unknown HCI Command
	ErrConnID            ErrCommand = 0x02 // Unknown Connection Identifier
	ErrPageTimeout       ErrCommand = 0x04 // Page Timeout
	ErrConnTimeout       ErrCommand = 0x08 // Connection Timeout
	ErrSCOConnLimit      ErrCommand = 0x0A // Synchronous Connection Limit To A Device Exceeded
	ErrDisallowed        ErrCommand = 0x0C // Command Disallowed
	ErrLimitedResource   ErrCommand = 0x0D // Connection Rejected due to Limited Resources
	ErrBDADDR            ErrCommand = 0x0F // Connection Rejected due to Unacceptable BD_ADDR
	ErrConnAcceptTimeout ErrCommand = 0x10 // Connection Accept Timeout Exceeded
	ErrUnsupportedParams ErrCommand = 0x11 // Unsupported Feature or Parameter Value
	ErrInvalidParams     ErrCommand = 0x12 // Invalid HCI Command Parameters
	ErrRemoteUser        ErrCommand = 0x13 // Remote User Terminated Connection
	ErrLocalHost         ErrCommand = 0x16 // Connection Terminated By Local Host
	ErrSCOOffset         ErrCommand = 0x1B // SCO Offset Rejected
	ErrSCOInterval       ErrCommand = 0x1C // SCO Interval Rejected
	ErrSCOAirMode        ErrCommand = 0x1D // SCO Air Mode Rejected
	ErrUnspecified       ErrCommand = 0x1F // Unspecified Error
	ErrHostBusy          ErrCommand = 0x38 // Host Busy - Pairing
)

func (e ErrCommand) Error() string {
	if s, ok := errCmd[e]; ok {
		return s
	}
	// A Host shall consider any error code that it does not explicitly
	// understand equivalent to the Unspecified Error (0x1F).
	return errCmd[ErrUnspecified]
}

var errCmd = map[ErrCommand]string{
	StatusSuccess:        "success",
	ErrUnknownCommand:    "unknown HCI command",
	ErrConnID:            "unknown connection identifier",
	ErrPageTimeout:       "page timeout",
	ErrConnTimeout:       "connection timeout",
	ErrSCOConnLimit:      "synchronous connection limit to a device exceeded",
	ErrDisallowed:        "command disallowed",
	ErrLimitedResource:   "connection rejected due to limited resources",
	ErrBDADDR:            "connection rejected due to unacceptable BD_ADDR",
	ErrConnAcceptTimeout: "connection accept timeout exceeded",
	ErrUnsupportedParams: "unsupported feature or parameter value",
	ErrInvalidParams:     "invalid HCI command parameters",
	ErrRemoteUser:        "remote user terminated connection",
	ErrLocalHost:         "connection terminated by local host",
	ErrSCOOffset:         "SCO offset rejected",
	ErrSCOInterval:       "SCO interval rejected",
	ErrSCOAirMode:        "SCO air mode rejected",
	ErrUnspecified:       "unspecified error",
	ErrHostBusy:          "host busy",
}
