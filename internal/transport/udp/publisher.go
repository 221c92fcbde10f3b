// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"sync"
	"time"

	"lipsync/internal/log"
	"lipsync/internal/transport"
)

// Publisher is a transport.Transport that forwards estimates as binary UDP
// packets. With a positive interval it rate-limits to one packet per tick,
// always carrying the newest estimate and skipping ticks with nothing new;
// otherwise every estimate is sent as it arrives. Failure events have no
// UDP encoding and are ignored.
type Publisher struct {
	sender   *Sender
	interval time.Duration
	log      *log.Logger

	mu      sync.Mutex
	latest  transport.EstimateEvent
	pending bool
	packet  []byte // reused encode buffer, guarded by mu

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPublisher starts publishing through sender.
func NewPublisher(sender *Sender, interval time.Duration) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	p := &Publisher{
		sender:   sender,
		interval: interval,
		log:      log.New("udp"),
		packet:   make([]byte, 0, PacketSize),
		done:     make(chan struct{}),
	}
	if interval > 0 {
		p.wg.Add(1)
		go p.run()
	}
	p.log.Debugf("publisher started (interval %s)", interval)
	return p, nil
}

// Send records an estimate for publishing.
func (p *Publisher) Send(data any) error {
	ev, ok := data.(transport.EstimateEvent)
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = ev
	p.pending = true
	if p.interval <= 0 {
		return p.flushLocked()
	}
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if err := p.flushLocked(); err != nil {
				p.log.Warnf("%v", err)
			}
			p.mu.Unlock()
		case <-p.done:
			return
		}
	}
}

func (p *Publisher) flushLocked() error {
	if !p.pending {
		return nil
	}
	p.pending = false

	ev := p.latest
	p.packet = AppendPacket(p.packet[:0], Packet{
		Seq:       ev.Seq,
		Timestamp: ev.Timestamp,
		Raw:       ev.Raw,
		Vowel:     ev.Vowel,
		Amount:    float32(ev.Amount),
		Level:     float32(ev.Level),
	})
	return p.sender.Send(p.packet)
}

// Close stops publishing and closes the sender.
func (p *Publisher) Close() error {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
	return p.sender.Close()
}

var _ transport.Transport = (*Publisher)(nil)
