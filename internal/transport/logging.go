// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	"lipsync/internal/log"
)

// LoggingTransport writes every event to the log. Estimates go out at debug
// level, so it costs nothing unless debug logging is on; failures always
// show up as errors.
type LoggingTransport struct {
	log *log.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{log: log.New("events")}
}

// Send logs data as JSON, or with %+v if it cannot be marshalled.
func (lt *LoggingTransport) Send(data any) error {
	if ev, ok := data.(FailureEvent); ok {
		lt.log.Errorf("failure: %s", ev.Message)
		return nil
	}
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		lt.log.Debugf("%T: %+v", data, data)
		return nil
	}
	lt.log.Debugf("%s", b)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error { return nil }

var _ Transport = (*LoggingTransport)(nil)
