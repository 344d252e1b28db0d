// Package sco negotiates SCO and eSCO links over an HCI command channel.
//
// A Negotiator serves one peer. Locally initiated links are opened with
// OpenConnection; AcceptConnection arms the negotiator to answer a
// peer-initiated connection request. Both walk an ordered list of candidate
// parameter sets until the controller and peer agree on one.
package sco

import (
	"sync"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/bthost/sco/hci"
	"github.com/bthost/sco/hci/cmd"
	"github.com/bthost/sco/hci/evt"
)

var logger = logging.MustGetLogger("sco")

// Negotiation errors.
var (
	// ErrCanceled is reported when a request is canceled, replaced by a
	// newer request, or still pending at teardown.
	ErrCanceled = errors.New("sco: request canceled")
	// ErrNoParameters is reported synchronously for an empty candidate list.
	ErrNoParameters = errors.New("sco: no parameter candidates")
	// ErrRejected is reported when every candidate was rejected.
	ErrRejected = errors.New("sco: all parameter candidates rejected")
)

// Result is the outcome of a successful negotiation: the established link
// and the zero-based index of the candidate parameter set that was used.
type Result struct {
	Conn       *Connection
	ParamIndex int
}

// ResultFunc receives the outcome of one negotiation request. Exactly one
// of Result.Conn and err is set.
type ResultFunc func(res Result, err error)

// Commander is the subset of *hci.HCI the negotiator issues commands and
// registers event handlers through.
type Commander interface {
	SendCommand(c cmd.Command, completeCode int, status hci.StatusHandler, complete hci.CompleteHandler, d hci.Dispatcher) (hci.TransactionID, error)
	AddEventHandler(code int, fn hci.HandlerFunc, d hci.Dispatcher) hci.HandlerID
	RemoveEventHandler(id hci.HandlerID)
}

// request tracks one negotiation. current walks the candidate list as the
// controller rejects parameter sets; received marks a responder request
// that has answered a peer connection request and is awaiting the
// Synchronous Connection Complete event.
type request struct {
	id        uint64
	initiator bool
	received  bool
	params    []ConnectionParams
	current   int
	cb        ResultFunc
}

// Handle cancels the request it was returned for. The zero Handle is a
// no-op.
type Handle struct {
	n  *Negotiator
	id uint64
}

// Negotiator negotiates synchronous links with a single peer over an
// existing ACL connection.
type Negotiator struct {
	cmdr Commander
	peer hci.DeviceAddr
	acl  uint16
	disp *hci.SerialDispatcher

	mu         sync.Mutex
	queued     *request
	inProgress *request
	conns      map[uint16]*Connection
	nextReq    uint64
	closed     bool

	hConnReq hci.HandlerID
	hSync    hci.HandlerID
}

// New returns a negotiator for the peer reachable over the given ACL
// connection handle. It registers the Connection Request and Synchronous
// Connection Complete handlers; at most one Negotiator (or other owner of
// those events) may exist per HCI instance.
func New(c Commander, peer hci.DeviceAddr, aclHandle uint16) (*Negotiator, error) {
	n := &Negotiator{
		cmdr:  c,
		peer:  peer,
		acl:   aclHandle,
		disp:  hci.NewSerialDispatcher(),
		conns: map[uint16]*Connection{},
	}
	n.hConnReq = c.AddEventHandler(evt.ConnectionRequestCode, n.handleConnectionRequest, n.disp)
	if n.hConnReq == 0 {
		n.disp.Close()
		return nil, errors.New("sco: connection request event already claimed")
	}
	n.hSync = c.AddEventHandler(evt.SynchronousConnectionCompleteCode, n.handleSynchronousConnectionComplete, n.disp)
	if n.hSync == 0 {
		c.RemoveEventHandler(n.hConnReq)
		n.disp.Close()
		return nil, errors.New("sco: synchronous connection complete event already claimed")
	}
	return n, nil
}

// OpenConnection initiates a link to the peer, trying each candidate in
// order. The callback fires exactly once.
func (n *Negotiator) OpenConnection(params []ConnectionParams, cb ResultFunc) Handle {
	return n.queueRequest(true, params, cb)
}

// AcceptConnection arms the negotiator to accept the peer's next SCO/eSCO
// connection request with the first compatible candidate. The callback
// fires exactly once.
func (n *Negotiator) AcceptConnection(params []ConnectionParams, cb ResultFunc) Handle {
	return n.queueRequest(false, params, cb)
}

func (n *Negotiator) queueRequest(initiator bool, params []ConnectionParams, cb ResultFunc) Handle {
	if len(params) == 0 {
		cb(Result{}, ErrNoParameters)
		return Handle{}
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		cb(Result{}, ErrCanceled)
		return Handle{}
	}
	n.nextReq++
	req := &request{
		id:        n.nextReq,
		initiator: initiator,
		params:    append([]ConnectionParams(nil), params...),
		cb:        cb,
	}
	// Only one request may wait its turn; a newer one replaces it.
	replaced := n.queued
	n.queued = req
	n.mu.Unlock()

	if replaced != nil {
		replaced.cb(Result{}, ErrCanceled)
	}
	n.tryCreateNextConnection()
	return Handle{n: n, id: req.id}
}

// tryCreateNextConnection promotes the queued request once no request is in
// progress. A responder that is still idle (no peer request seen yet) is
// superseded by a newer request.
func (n *Negotiator) tryCreateNextConnection() {
	n.mu.Lock()
	if ip := n.inProgress; ip != nil && !ip.initiator && !ip.received && n.queued != nil {
		n.inProgress = nil
		n.mu.Unlock()
		ip.cb(Result{}, ErrCanceled)
		n.tryCreateNextConnection()
		return
	}
	if n.inProgress != nil || n.queued == nil {
		n.mu.Unlock()
		return
	}
	req := n.queued
	n.queued = nil
	n.inProgress = req
	n.mu.Unlock()

	if req.initiator {
		n.sendSetup(req)
	}
}

func (n *Negotiator) sendSetup(req *request) {
	p := req.params[req.current]
	id := req.id
	_, err := n.cmdr.SendCommand(&cmd.SetupSynchronousConnection{
		ConnectionHandle:     n.acl,
		TransmitBandwidth:    p.TransmitBandwidth,
		ReceiveBandwidth:     p.ReceiveBandwidth,
		MaxLatency:           p.MaxLatency,
		VoiceSetting:         p.VoiceSetting,
		RetransmissionEffort: p.RetransmissionEffort,
		PacketType:           p.PacketType,
	}, evt.CommandStatusCode, nil, func(_ hci.TransactionID, b []byte) {
		if st := hci.ErrCommand(evt.CommandStatus(b).Status()); st != hci.StatusSuccess {
			n.completeRequest(id, Result{}, errors.Wrap(st, "setup synchronous connection"))
		}
	}, n.disp)
	if err != nil {
		n.completeRequest(id, Result{}, err)
	}
}

func (n *Negotiator) sendAccept(addr [6]byte, p ConnectionParams, reqID uint64) {
	_, err := n.cmdr.SendCommand(&cmd.AcceptSynchronousConnectionRequest{
		BDADDR:               addr,
		TransmitBandwidth:    p.TransmitBandwidth,
		ReceiveBandwidth:     p.ReceiveBandwidth,
		MaxLatency:           p.MaxLatency,
		VoiceSetting:         p.VoiceSetting,
		RetransmissionEffort: p.RetransmissionEffort,
		PacketType:           p.PacketType,
	}, evt.CommandStatusCode, nil, func(_ hci.TransactionID, b []byte) {
		if st := hci.ErrCommand(evt.CommandStatus(b).Status()); st != hci.StatusSuccess {
			n.completeRequest(reqID, Result{}, errors.Wrap(st, "accept synchronous connection"))
		}
	}, n.disp)
	if err != nil {
		n.completeRequest(reqID, Result{}, err)
	}
}

func (n *Negotiator) sendReject(addr [6]byte) {
	_, err := n.cmdr.SendCommand(&cmd.RejectSynchronousConnectionRequest{
		BDADDR: addr,
		Reason: byte(hci.ErrLimitedResource),
	}, evt.CommandStatusCode, nil, nil, nil)
	if err != nil {
		logger.Errorf("reject synchronous connection: %s", err)
	}
}

// completeRequest retires the in-progress request identified by id. State
// is cleared before the callback runs, so the callback may queue or cancel
// requests freely; any request queued behind the completed one is started
// afterwards.
func (n *Negotiator) completeRequest(id uint64, res Result, err error) {
	n.mu.Lock()
	req := n.inProgress
	if req == nil || req.id != id {
		n.mu.Unlock()
		return
	}
	n.inProgress = nil
	n.mu.Unlock()

	req.cb(res, err)
	n.tryCreateNextConnection()
}

func (n *Negotiator) handleConnectionRequest(p []byte) {
	if len(p) < 10 {
		logger.Debugf("truncated connection request: [ % X ]", p)
		return
	}
	e := evt.ConnectionRequest(p)
	if lt := e.LinkType(); lt != evt.LinkTypeSCO && lt != evt.LinkTypeESCO {
		return
	}
	if hci.DeviceAddr(e.BDADDR()) != n.peer {
		return
	}

	n.mu.Lock()
	req := n.inProgress
	if req == nil || req.initiator {
		n.mu.Unlock()
		// Unsolicited requests are refused while idle or initiating.
		n.sendReject(e.BDADDR())
		return
	}
	if req.received {
		// Already answered; awaiting Synchronous Connection Complete.
		n.mu.Unlock()
		return
	}
	idx := req.current
	for idx < len(req.params) && !req.params[idx].SupportsLinkType(e.LinkType()) {
		idx++
	}
	req.current = idx
	req.received = true
	if idx == len(req.params) {
		// No compatible candidate. Reject; the controller still emits a
		// failed Synchronous Connection Complete, which finishes the
		// request.
		n.mu.Unlock()
		n.sendReject(e.BDADDR())
		return
	}
	params := req.params[idx]
	reqID := req.id
	n.mu.Unlock()

	n.sendAccept(e.BDADDR(), params, reqID)
}

func (n *Negotiator) handleSynchronousConnectionComplete(p []byte) {
	if len(p) < 17 {
		logger.Debugf("truncated synchronous connection complete: [ % X ]", p)
		return
	}
	e := evt.SynchronousConnectionComplete(p)
	if hci.DeviceAddr(e.BDADDR()) != n.peer {
		return
	}

	n.mu.Lock()
	req := n.inProgress
	if req == nil {
		n.mu.Unlock()
		logger.Debugf("spurious synchronous connection complete from %s", n.peer)
		return
	}
	st := hci.ErrCommand(e.Status())

	if st == hci.StatusSuccess {
		lt := e.LinkType()
		if lt != evt.LinkTypeSCO && lt != evt.LinkTypeESCO {
			n.mu.Unlock()
			n.completeRequest(req.id, Result{}, errors.Errorf("sco: unexpected link type 0x%02X", lt))
			return
		}
		c := &Connection{n: n, hnd: e.ConnectionHandle(), peer: n.peer, linkType: lt}
		n.conns[c.hnd] = c
		idx := req.current
		n.mu.Unlock()
		n.completeRequest(req.id, Result{Conn: c, ParamIndex: idx}, nil)
		return
	}

	replacementQueued := n.queued != nil
	exhausted := req.current >= len(req.params)-1
	n.mu.Unlock()

	switch {
	case req.initiator:
		n.completeRequest(req.id, Result{}, errors.Wrap(st, "synchronous connection failed"))
	case replacementQueued:
		// A newer request is waiting; abandon the retry loop.
		n.completeRequest(req.id, Result{}, ErrCanceled)
	case exhausted:
		n.completeRequest(req.id, Result{}, errors.Wrap(ErrRejected, st.Error()))
	default:
		// Try the next candidate on the peer's next connection request.
		n.mu.Lock()
		req.current++
		req.received = false
		n.mu.Unlock()
	}
}

// Cancel removes the request if it has not started, or if it is a responder
// that has not yet answered a peer request. Cancelling an initiator whose
// command is already in flight is a no-op.
func (h Handle) Cancel() {
	n := h.n
	if n == nil {
		return
	}
	n.mu.Lock()
	if q := n.queued; q != nil && q.id == h.id {
		n.queued = nil
		n.mu.Unlock()
		q.cb(Result{}, ErrCanceled)
		return
	}
	if ip := n.inProgress; ip != nil && ip.id == h.id && !ip.initiator && !ip.received {
		n.inProgress = nil
		n.mu.Unlock()
		ip.cb(Result{}, ErrCanceled)
		n.tryCreateNextConnection()
		return
	}
	n.mu.Unlock()
}

func (n *Negotiator) forgetConnection(hnd uint16) {
	n.mu.Lock()
	delete(n.conns, hnd)
	n.mu.Unlock()
}

// Close unregisters the event handlers, disconnects live links, and
// completes any queued or in-progress request with ErrCanceled.
func (n *Negotiator) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	q, ip := n.queued, n.inProgress
	n.queued, n.inProgress = nil, nil
	conns := make([]*Connection, 0, len(n.conns))
	for _, c := range n.conns {
		conns = append(conns, c)
	}
	n.conns = map[uint16]*Connection{}
	n.mu.Unlock()

	n.cmdr.RemoveEventHandler(n.hConnReq)
	n.cmdr.RemoveEventHandler(n.hSync)
	for _, c := range conns {
		c.Close()
	}
	if q != nil {
		q.cb(Result{}, ErrCanceled)
	}
	if ip != nil {
		ip.cb(Result{}, ErrCanceled)
	}
	n.disp.Close()
	return nil
}
