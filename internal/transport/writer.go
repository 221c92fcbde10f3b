// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Output formats for WriterTransport.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriterTransport prints one line per event to an io.Writer, either as a
// fixed-width table row or as JSON.
type WriterTransport struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	enc    *json.Encoder
}

// NewWriterTransport writes events to w in format.
func NewWriterTransport(w io.Writer, format string) (*WriterTransport, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &WriterTransport{w: w, format: format, enc: json.NewEncoder(w)}, nil
}

func (wt *WriterTransport) Send(data any) error {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	if wt.format == FormatJSON {
		return wt.enc.Encode(data)
	}

	switch ev := data.(type) {
	case EstimateEvent:
		_, err := fmt.Fprintf(wt.w, "%6d %9.3fs  %-2s (raw %-2s)  amount %.3f  level %7.2f dB  distance %.4f\n",
			ev.Seq, time.Duration(ev.Timestamp).Seconds(), ev.Name, ev.Raw, ev.Amount, ev.Level, ev.Distance)
		return err
	case FailureEvent:
		_, err := fmt.Fprintf(wt.w, "failure: %s\n", ev.Message)
		return err
	default:
		_, err := fmt.Fprintf(wt.w, "%+v\n", data)
		return err
	}
}

// Close does not close the underlying writer.
func (wt *WriterTransport) Close() error { return nil }

var _ Transport = (*WriterTransport)(nil)
