// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/log"
)

// Dispatcher fans worker output out to every registered Transport. It
// implements worker.Notifier.
type Dispatcher struct {
	mu         sync.Mutex
	transports []Transport
	seq        uint32
	now        func() time.Time
	log        *log.Logger
}

// NewDispatcher returns a Dispatcher delivering to transports.
func NewDispatcher(transports ...Transport) *Dispatcher {
	return &Dispatcher{
		transports: transports,
		now:        time.Now,
		log:        log.New("dispatch"),
	}
}

// SetClock replaces the timestamp source, e.g. with a media clock when
// analysing a file.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Add registers another Transport.
func (d *Dispatcher) Add(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transports = append(d.transports, t)
}

// OnEstimate sends est to every transport. A failing transport is logged and
// skipped; the others still receive the event.
func (d *Dispatcher) OnEstimate(est analysis.Estimate) {
	d.mu.Lock()
	d.seq++
	ev := NewEstimateEvent(d.seq, d.now(), est)
	targets := d.transports
	d.mu.Unlock()

	d.broadcast(targets, ev)
}

// OnFailure sends a FailureEvent to every transport.
func (d *Dispatcher) OnFailure(message string) {
	d.log.Errorf("analysis worker failed: %s", message)

	d.mu.Lock()
	targets := d.transports
	d.mu.Unlock()

	d.broadcast(targets, NewFailureEvent(message))
}

func (d *Dispatcher) broadcast(targets []Transport, ev any) {
	for _, t := range targets {
		if err := t.Send(ev); err != nil {
			d.log.Warnf("%T: send failed: %v", t, err)
		}
	}
}

// Close closes every transport and returns the joined errors.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	targets := d.transports
	d.transports = nil
	d.mu.Unlock()

	var errs []error
	for _, t := range targets {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
