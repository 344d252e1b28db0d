// Package hci implements the HCI command/event transaction layer: a FIFO
// command queue with controller-mandated single-outstanding-command flow
// control [Vol 2, Part E, 4.4], correlation of Command Status and completion
// events to the in-flight command, and routing of unsolicited events to
// registered handlers.
package hci

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/bthost/sco/hci/cmd"
	"github.com/bthost/sco/hci/evt"
)

var logger = logging.MustGetLogger("hci")

// TransactionID identifies one command/response exchange on an HCI
// instance. IDs are monotonically increasing for the lifetime of the
// instance; wrap-around is accepted.
type TransactionID uint64

// HandlerID identifies a registered event handler. The zero value is
// returned by AddEventHandler on failure and never identifies a handler.
type HandlerID uint64

// StatusHandler receives the Command Status event for a command. A non-zero
// status means the command failed and no completion event will follow.
type StatusHandler func(id TransactionID, status ErrCommand)

// CompleteHandler receives the parameter block of the event that completes
// a command.
type CompleteHandler func(id TransactionID, p []byte)

// HandlerFunc receives the parameter block of an unsolicited event. For the
// LE Meta namespace the block starts with the subevent code.
type HandlerFunc func(p []byte)

type queuedCommand struct {
	id           TransactionID
	opcode       int
	pkt          []byte
	completeCode int
	status       StatusHandler
	complete     CompleteHandler
	disp         Dispatcher
}

// pendingTransaction is the bookkeeping of the single in-flight command. It
// is installed when the command bytes reach the transport and cleared when
// the completion event arrives or a failing status retires the command.
type pendingTransaction struct {
	id           TransactionID
	opcode       int
	completeCode int
	status       StatusHandler
	complete     CompleteHandler
	disp         Dispatcher
}

type handlerEntry struct {
	id   HandlerID
	fn   HandlerFunc
	disp Dispatcher
}

// NewHCI returns an HCI transaction queue.
func NewHCI(opts ...Option) (*HCI, error) {
	h := &HCI{
		id: -1,

		evth: map[int]*handlerEntry{},
		subh: map[int]*handlerEntry{},

		chEvt:   make(chan []byte, 64),
		chDrain: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if err := h.Option(opts...); err != nil {
		return nil, errors.Wrap(err, "can't set options")
	}
	if h.disp == nil {
		h.ownDisp = NewSerialDispatcher()
		h.disp = h.ownDisp
	}
	return h, nil
}

// HCI owns one HCI channel to a controller. Commands are serialized onto
// the transport one at a time; events are decoded on a single I/O goroutine
// and dispatched either to the pending command or to a registered handler.
type HCI struct {
	skt io.ReadWriteCloser
	id  int

	// Command flow control. The FIFO is guarded by muQueue; pending is
	// only installed and cleared on the I/O goroutine.
	muQueue sync.Mutex
	queue   []*queuedCommand
	pending *pendingTransaction

	// Event routing table, guarded independently so registration never
	// serializes behind command submission.
	muHandlers  sync.Mutex
	evth        map[int]*handlerEntry
	subh        map[int]*handlerEntry
	nextHandler uint64

	nextTransaction uint64

	disp    Dispatcher
	ownDisp *SerialDispatcher

	chEvt   chan []byte
	chDrain chan struct{}

	once sync.Once
	done chan struct{}
	err  error
}

// Option sets the options specified.
func (h *HCI) Option(opts ...Option) error {
	var err error
	for _, opt := range opts {
		err = opt(h)
	}
	return err
}

// Init binds the transport and starts the I/O goroutines. If no transport
// was injected with OptTransport, the HCI device socket is opened.
func (h *HCI) Init() error {
	if h.skt == nil {
		skt, err := openSocket(h.id)
		if err != nil {
			return err
		}
		h.skt = skt
	}
	go h.sktLoop()
	go h.ioLoop()
	return nil
}

// Close stops the I/O goroutines, drops the queue and any pending
// transaction without invoking callbacks, and releases the transport.
func (h *HCI) Close() error {
	h.once.Do(func() {
		close(h.done)
		if h.skt != nil {
			h.skt.Close()
		}
		h.muQueue.Lock()
		h.queue = nil
		h.pending = nil
		h.muQueue.Unlock()
		if h.ownDisp != nil {
			h.ownDisp.Close()
		}
	})
	return nil
}

// Error returns the error that stopped the I/O loop, if any.
func (h *HCI) Error() error {
	return h.err
}

func (h *HCI) stop(err error) {
	if h.err == nil {
		h.err = err
	}
	h.Close()
}

// SendCommand queues a command for transmission. The command is encoded
// now; the returned TransactionID identifies it in the status and complete
// callbacks, which are posted on d (or the default dispatcher when d is
// nil). completeCode is the event code that finishes the exchange; a
// command whose only response is Command Status uses evt.CommandStatusCode
// and receives that event through complete. SendCommand never blocks on the
// transport.
func (h *HCI) SendCommand(c cmd.Command, completeCode int, status StatusHandler, complete CompleteHandler, d Dispatcher) (TransactionID, error) {
	select {
	case <-h.done:
		return 0, errors.New("hci: closed")
	default:
	}
	b := make([]byte, 1+cmdHdrLen+c.Len())
	b[0] = pktTypeCommand
	b[1] = byte(c.OpCode())
	b[2] = byte(c.OpCode() >> 8)
	b[3] = byte(c.Len())
	if err := c.Marshal(b[4:]); err != nil {
		return 0, errors.Wrap(err, "hci: marshal cmd")
	}
	if d == nil {
		d = h.disp
	}
	q := &queuedCommand{
		id:           TransactionID(atomic.AddUint64(&h.nextTransaction, 1)),
		opcode:       c.OpCode(),
		pkt:          b,
		completeCode: completeCode,
		status:       status,
		complete:     complete,
		disp:         d,
	}
	h.muQueue.Lock()
	h.queue = append(h.queue, q)
	h.muQueue.Unlock()
	h.wakeDrain()
	return q.id, nil
}

// Send issues a command that completes with Command Complete and waits for
// its return parameters. A non-zero status byte is returned as ErrCommand.
func (h *HCI) Send(c cmd.Command, r cmd.CommandRP) error {
	ch := make(chan []byte, 1)
	_, err := h.SendCommand(c, evt.CommandCompleteCode, func(_ TransactionID, status ErrCommand) {
		// A failing status retires the command; no Command Complete will
		// follow, so the failure is the result.
		if status != StatusSuccess {
			ch <- []byte{byte(status)}
		}
	}, func(_ TransactionID, p []byte) {
		ch <- evt.CommandComplete(p).ReturnParameters()
	}, nil)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return errors.New("hci: closed")
	case b := <-ch:
		if len(b) > 0 && b[0] != 0x00 {
			return ErrCommand(b[0])
		}
		if r != nil {
			return r.Unmarshal(b)
		}
		return nil
	}
}

// AddEventHandler registers fn for an event code. At most one handler may
// be registered per code; the Command Complete and Command Status codes are
// reserved for transaction bookkeeping. Returns 0 if registration is
// rejected. Callbacks are posted on d, or the default dispatcher when d is
// nil.
func (h *HCI) AddEventHandler(code int, fn HandlerFunc, d Dispatcher) HandlerID {
	if fn == nil || code == evt.CommandCompleteCode || code == evt.CommandStatusCode {
		return 0
	}
	return h.addHandler(h.evth, code, fn, d)
}

// AddSubEventHandler registers fn for an LE Meta subevent code. The zero
// subevent code is reserved. Returns 0 if registration is rejected.
func (h *HCI) AddSubEventHandler(subCode int, fn HandlerFunc, d Dispatcher) HandlerID {
	if fn == nil || subCode == 0 {
		return 0
	}
	return h.addHandler(h.subh, subCode, fn, d)
}

func (h *HCI) addHandler(m map[int]*handlerEntry, code int, fn HandlerFunc, d Dispatcher) HandlerID {
	if d == nil {
		d = h.disp
	}
	h.muHandlers.Lock()
	defer h.muHandlers.Unlock()
	if _, dup := m[code]; dup {
		return 0
	}
	h.nextHandler++
	e := &handlerEntry{id: HandlerID(h.nextHandler), fn: fn, disp: d}
	m[code] = e
	return e.id
}

// RemoveEventHandler unregisters the handler with the given id; no-op if it
// is not registered. Safe to call from within a handler callback.
func (h *HCI) RemoveEventHandler(id HandlerID) {
	h.muHandlers.Lock()
	defer h.muHandlers.Unlock()
	for code, e := range h.evth {
		if e.id == id {
			delete(h.evth, code)
			return
		}
	}
	for code, e := range h.subh {
		if e.id == id {
			delete(h.subh, code)
			return
		}
	}
}

func (h *HCI) wakeDrain() {
	select {
	case h.chDrain <- struct{}{}:
	default:
	}
}

func (h *HCI) sktLoop() {
	b := make([]byte, 4096)
	for {
		n, err := h.skt.Read(b)
		if n == 0 || err != nil {
			select {
			case <-h.done:
			default:
				h.stop(errors.Wrap(err, "hci: socket read"))
			}
			return
		}
		p := make([]byte, n)
		copy(p, b)
		select {
		case <-h.done:
			return
		case h.chEvt <- p:
		}
	}
}

// ioLoop is the single goroutine that drains the command queue and
// dispatches incoming packets; no two drains or dispatches ever run
// concurrently.
func (h *HCI) ioLoop() {
	for {
		select {
		case <-h.done:
			return
		case p := <-h.chEvt:
			h.handlePkt(p)
		case <-h.chDrain:
			h.drain()
		}
	}
}

// drain starts the next queued command unless one is already in flight. A
// command whose bytes cannot be written is dropped without a callback; the
// drain moves on to the next one.
func (h *HCI) drain() {
	for {
		h.muQueue.Lock()
		if h.pending != nil || len(h.queue) == 0 {
			h.muQueue.Unlock()
			return
		}
		q := h.queue[0]
		h.queue = h.queue[1:]
		h.muQueue.Unlock()

		if n, err := h.skt.Write(q.pkt); err != nil {
			logger.Errorf("dropping cmd 0x%04X: %s", q.opcode, err)
			continue
		} else if n != len(q.pkt) {
			logger.Errorf("dropping cmd 0x%04X: short write (%d of %d)", q.opcode, n, len(q.pkt))
			continue
		}

		h.muQueue.Lock()
		h.pending = &pendingTransaction{
			id:           q.id,
			opcode:       q.opcode,
			completeCode: q.completeCode,
			status:       q.status,
			complete:     q.complete,
			disp:         q.disp,
		}
		h.muQueue.Unlock()
		return
	}
}

func (h *HCI) handlePkt(b []byte) {
	t, b := b[0], b[1:]
	switch t {
	case pktTypeEvent:
		h.handleEvt(b)
	case pktTypeACLData, pktTypeSCOData:
		// Data paths are not managed by this layer.
	default:
		logger.Debugf("unsupported packet: 0x%02X [ % X ]", t, b)
	}
}

func (h *HCI) handleEvt(b []byte) {
	if len(b) < evtHdrLen {
		logger.Debugf("truncated event packet: [ % X ]", b)
		return
	}
	code, plen := int(b[0]), int(b[1])
	if plen != len(b[2:]) {
		logger.Debugf("corrupt event packet: [ % X ]", b)
		return
	}
	p := b[2:]

	h.muQueue.Lock()
	pend := h.pending
	h.muQueue.Unlock()

	if pend != nil && code == pend.completeCode {
		// For the conventional completion events the embedded opcode
		// must name the pending command; a mismatch is protocol noise
		// and the real completion is still to come. A payload shorter
		// than the fixed layout is noise too.
		switch {
		case code == evt.CommandCompleteCode && len(p) < 3,
			code == evt.CommandStatusCode && len(p) < 4:
			logger.Debugf("truncated event packet: [ % X ]", b)
			return
		case code == evt.CommandCompleteCode && int(evt.CommandComplete(p).CommandOpcode()) != pend.opcode:
			logger.Debugf("complete event for unexpected opcode 0x%04X", evt.CommandComplete(p).CommandOpcode())
			return
		case code == evt.CommandStatusCode && int(evt.CommandStatus(p).CommandOpcode()) != pend.opcode:
			logger.Debugf("status event for unexpected opcode 0x%04X", evt.CommandStatus(p).CommandOpcode())
			return
		}
		h.clearPending()
		if pend.complete != nil {
			id := pend.id
			fn := pend.complete
			pend.disp.Post(func() { fn(id, p) })
		}
		h.drain()
		return
	}

	if pend != nil && code == evt.CommandStatusCode {
		if len(p) < 4 {
			logger.Debugf("truncated event packet: [ % X ]", b)
			return
		}
		e := evt.CommandStatus(p)
		if int(e.CommandOpcode()) != pend.opcode {
			logger.Debugf("status event for unexpected opcode 0x%04X", e.CommandOpcode())
			return
		}
		st := ErrCommand(e.Status())
		if pend.status != nil {
			id := pend.id
			fn := pend.status
			pend.disp.Post(func() { fn(id, st) })
		}
		if st != StatusSuccess {
			// The command failed outright; no completion event will
			// follow, so the transaction is retired.
			h.clearPending()
			h.drain()
		}
		return
	}

	var entry *handlerEntry
	h.muHandlers.Lock()
	if code == evt.LEMetaCode {
		if len(p) > 0 {
			entry = h.subh[int(evt.LEMeta(p).SubeventCode())]
		}
	} else {
		entry = h.evth[code]
	}
	h.muHandlers.Unlock()
	if entry == nil {
		logger.Debugf("unhandled event packet: [ % X ]", b)
		return
	}
	fn := entry.fn
	entry.disp.Post(func() { fn(p) })
}

func (h *HCI) clearPending() {
	h.muQueue.Lock()
	h.pending = nil
	h.muQueue.Unlock()
}
