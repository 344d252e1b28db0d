package hci

import "sync"

// A Dispatcher runs posted functions on its own execution context. Every
// status, completion and event handler callback is delivered through a
// Dispatcher so that caller code never runs on the I/O loop.
//
// Post must be safe for concurrent use. Implementations may drop functions
// posted after the dispatcher has been shut down.
type Dispatcher interface {
	Post(fn func())
}

// SerialDispatcher runs posted functions one at a time, in posting order,
// on a single goroutine.
type SerialDispatcher struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

// NewSerialDispatcher starts the dispatcher goroutine.
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		ch:   make(chan func(), 64),
		done: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *SerialDispatcher) loop() {
	for {
		select {
		case <-d.done:
			return
		case fn := <-d.ch:
			fn()
		}
	}
}

// Post queues fn for execution. Functions posted after Close are dropped.
func (d *SerialDispatcher) Post(fn func()) {
	select {
	case <-d.done:
	case d.ch <- fn:
	}
}

// Close stops the dispatcher. Functions already queued but not yet started
// are discarded.
func (d *SerialDispatcher) Close() {
	d.once.Do(func() { close(d.done) })
}
