// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"lipsync/internal/analysis"
)

// Transport delivers events to the host. Implementations must be safe for
// concurrent use and must not block the caller for long; the dispatcher
// runs on the host's poll loop.
type Transport interface {
	Send(data any) error
	Close() error
}

// Event type tags used on the wire.
const (
	TypeEstimate = "estimate"
	TypeFailure  = "failure"
)

// EstimateEvent is the wire form of one vowel estimate.
type EstimateEvent struct {
	Type      string         `json:"type"`
	Seq       uint32         `json:"seq"`
	Timestamp int64          `json:"timestamp"` // Unix nanoseconds
	Raw       analysis.Vowel `json:"raw"`
	Vowel     analysis.Vowel `json:"vowel"`
	Name      string         `json:"name"`
	Amount    float64        `json:"amount"`
	Level     float64        `json:"level"`
	Distance  float64        `json:"distance"`
}

// NewEstimateEvent wraps est for delivery.
func NewEstimateEvent(seq uint32, at time.Time, est analysis.Estimate) EstimateEvent {
	return EstimateEvent{
		Type:      TypeEstimate,
		Seq:       seq,
		Timestamp: at.UnixNano(),
		Raw:       est.Raw,
		Vowel:     est.Vowel,
		Name:      est.Name(),
		Amount:    est.Amount,
		Level:     est.Level,
		Distance:  est.Distance,
	}
}

// Estimate converts the event back to an analysis.Estimate.
func (e EstimateEvent) Estimate() analysis.Estimate {
	return analysis.Estimate{
		Raw:      e.Raw,
		Vowel:    e.Vowel,
		Amount:   e.Amount,
		Level:    e.Level,
		Distance: e.Distance,
	}
}

// FailureEvent tells the host the analysis worker is gone.
type FailureEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewFailureEvent wraps message for delivery.
func NewFailureEvent(message string) FailureEvent {
	return FailureEvent{Type: TypeFailure, Message: message}
}
