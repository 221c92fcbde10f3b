// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"lipsync/internal/log"
)

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("udp sender closed")

// Sender writes datagrams to a single target address.
type Sender struct {
	conn *net.UDPConn
	mu   sync.Mutex // protects conn during Close
	log  *log.Logger
}

// NewSender dials targetAddress ("host:port"). No local port is bound.
func NewSender(targetAddress string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve udp target %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp target %q: %w", targetAddress, err)
	}

	s := &Sender{conn: conn, log: log.New("udp")}
	s.log.Infof("sending to %s", conn.RemoteAddr())
	return s, nil
}

// Send transmits data as one datagram. It is safe for concurrent use.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrSenderClosed
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("send udp packet: %w", err)
	}
	return nil
}

// Close closes the connection. Further calls are no-ops.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close udp connection: %w", err)
	}
	return nil
}
