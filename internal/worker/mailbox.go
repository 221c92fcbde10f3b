// SPDX-License-Identifier: MIT
package worker

import "sync"

const compactThreshold = 1024

// mailbox is an unbounded multi-producer FIFO queue. send never blocks
// beyond a short critical section; the single consumer either polls with
// tryRecv or parks in recv until a message arrives.
type mailbox struct {
	mu     sync.Mutex
	queue  []Message
	head   int
	signal chan struct{} // capacity 1, coalesces wake-ups
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) send(msg Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
}

func (m *mailbox) tryRecv() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.head == len(m.queue) {
		return Message{}, false
	}
	msg := m.queue[m.head]
	m.queue[m.head] = Message{} // release the sample buffer
	m.head++
	switch {
	case m.head == len(m.queue):
		m.queue = m.queue[:0]
		m.head = 0
	case m.head >= compactThreshold && m.head*2 >= len(m.queue):
		// A queue that never drains would otherwise grow without bound.
		n := copy(m.queue, m.queue[m.head:])
		clear(m.queue[n:])
		m.queue = m.queue[:n]
		m.head = 0
	}
	return msg, true
}

// recv blocks until a message is available.
func (m *mailbox) recv() Message {
	for {
		if msg, ok := m.tryRecv(); ok {
			return msg
		}
		<-m.signal
	}
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue) - m.head
}
