// SPDX-License-Identifier: MIT
/*
Package worker runs the vowel analyzer on a dedicated goroutine and connects
it to a real-time producer through a pair of unbounded mailboxes.

	producer --Submit--> inbound --> worker goroutine --> outbound --Poll--> Notifier

Submit never blocks the producer and Poll never blocks the host. Frames are
processed strictly in submission order; if they arrive faster than the
analyzer can keep up, the inbound queue grows and latency rises, but no frame
is dropped.
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/log"
)

var (
	// ErrClosed is returned by Submit once shutdown has been requested or the
	// worker has exited.
	ErrClosed = errors.New("worker: closed")
	// ErrDisconnected reports that the worker goroutine died unexpectedly.
	ErrDisconnected = errors.New("worker: channel disconnected")
)

// Kind tags a Message.
type Kind uint8

const (
	KindInput Kind = iota
	KindResult
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindResult:
		return "result"
	case KindShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Message is the unit carried by both mailboxes. Inbound messages are
// KindInput or KindShutdown; outbound messages are always KindResult.
type Message struct {
	Kind     Kind
	Samples  []float32 // owned by the message once submitted
	Estimate analysis.Estimate
}

// Notifier receives the worker's output on the goroutine that calls Poll.
type Notifier interface {
	OnEstimate(est analysis.Estimate)
	// OnFailure is called once when the worker goroutine has died.
	OnFailure(message string)
}

// Observer receives per-frame statistics. Calls come from both the producer
// and the worker goroutine.
type Observer interface {
	FrameSubmitted(queueDepth int)
	FrameProcessed(elapsed time.Duration, est analysis.Estimate)
	FrameSkipped(err error)
	Stopped(failed bool)
}

type nopObserver struct{}

func (nopObserver) FrameSubmitted(int)                              {}
func (nopObserver) FrameProcessed(time.Duration, analysis.Estimate) {}
func (nopObserver) FrameSkipped(error)                              {}
func (nopObserver) Stopped(bool)                                    {}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger replaces the default "worker" logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Worker) { w.log = l }
}

// WithObserver attaches an Observer, typically the metrics collector.
func WithObserver(o Observer) Option {
	return func(w *Worker) {
		if o != nil {
			w.observer = o
		}
	}
}

// Worker owns one analyzer and the goroutine that drives it.
type Worker struct {
	analyzer analysis.FrameAnalyzer
	notifier Notifier
	observer Observer
	log      *log.Logger

	inbound  *mailbox
	outbound *mailbox

	mu      sync.Mutex // guards closing against concurrent Submit
	closing bool

	done     chan struct{}          // closed when the goroutine exits
	failure  atomic.Pointer[string] // set before done is closed on abnormal exit
	reported atomic.Bool
}

// New starts the worker goroutine. The analyzer is used exclusively by that
// goroutine from now on.
func New(analyzer analysis.FrameAnalyzer, notifier Notifier, opts ...Option) *Worker {
	w := &Worker{
		analyzer: analyzer,
		notifier: notifier,
		observer: nopObserver{},
		log:      log.New("worker"),
		inbound:  newMailbox(),
		outbound: newMailbox(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.loop()
	return w
}

// Submit enqueues samples for analysis and returns immediately. The caller
// must not touch samples afterwards.
func (w *Worker) Submit(samples []float32) error {
	w.mu.Lock()
	if w.closing || w.exited() {
		w.mu.Unlock()
		w.log.Debugf("dropping %d samples submitted after shutdown", len(samples))
		return ErrClosed
	}
	w.inbound.send(Message{Kind: KindInput, Samples: samples})
	w.mu.Unlock()

	w.observer.FrameSubmitted(w.inbound.len())
	return nil
}

// Poll dispatches at most one pending outbound message and reports whether
// it found one. It never blocks. Once the worker has died and every result
// it produced has been delivered, Poll calls Notifier.OnFailure exactly once.
func (w *Worker) Poll() bool {
	msg, ok := w.outbound.tryRecv()
	if !ok {
		w.reportFailure()
		return false
	}

	switch msg.Kind {
	case KindResult:
		w.notifier.OnEstimate(msg.Estimate)
	default:
		w.log.Errorf("protocol violation: %s message on the result channel, shutting down", msg.Kind)
		w.requestShutdown()
	}
	return true
}

// Shutdown asks the worker to stop and waits for its goroutine to exit.
// Inputs submitted before Shutdown are still analysed; their results remain
// available to Poll. It is safe to call more than once.
func (w *Worker) Shutdown() {
	w.requestShutdown()
	<-w.done
}

// Run polls every interval until ctx is done or the worker has stopped and
// its results are drained. It returns ErrDisconnected if the worker died.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for w.Poll() {
			}
			if w.exited() && w.outbound.len() == 0 {
				return w.Err()
			}
		}
	}
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Err returns ErrDisconnected, wrapped with the cause, if the worker died.
func (w *Worker) Err() error {
	if msg := w.failure.Load(); msg != nil {
		return fmt.Errorf("%w: %s", ErrDisconnected, *msg)
	}
	return nil
}

// Pending returns the number of queued inputs not yet analysed.
func (w *Worker) Pending() int { return w.inbound.len() }

func (w *Worker) requestShutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closing {
		return
	}
	w.closing = true
	w.inbound.send(Message{Kind: KindShutdown})
}

func (w *Worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *Worker) reportFailure() {
	if !w.exited() || w.failure.Load() == nil {
		return
	}
	if w.reported.CompareAndSwap(false, true) {
		w.notifier.OnFailure(w.Err().Error())
	}
}

func (w *Worker) loop() {
	failed := false
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("analyzer panic: %v", r)
			w.log.Errorf("%s", msg)
			w.failure.Store(&msg)
			failed = true
		}
		w.observer.Stopped(failed)
		close(w.done)
	}()

	w.log.Debugf("started")
	for {
		msg := w.inbound.recv()
		switch msg.Kind {
		case KindShutdown:
			w.log.Debugf("shutdown received, %d inputs discarded", w.inbound.len())
			return
		case KindInput:
			w.execute(msg.Samples)
		default:
			w.log.Warnf("ignoring unexpected %s message", msg.Kind)
		}
	}
}

func (w *Worker) execute(samples []float32) {
	start := time.Now()
	est, err := w.analyzer.Analyze(samples)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientInput) {
			w.log.Debugf("skipping frame: %v", err)
		} else {
			w.log.Warnf("skipping frame: %v", err)
		}
		w.observer.FrameSkipped(err)
		return
	}
	w.observer.FrameProcessed(time.Since(start), est)
	w.outbound.send(Message{Kind: KindResult, Estimate: est})
}
