// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lipsync/internal/analysis"
	"lipsync/pkg/utils"

	"github.com/gorilla/websocket"
)

type failingTransport struct{ closeErr error }

func (failingTransport) Send(any) error   { return errors.New("unreachable") }
func (f failingTransport) Close() error { return f.closeErr }

func TestDispatcherFansOut(t *testing.T) {
	a, b := &utils.MockTransport{}, &utils.MockTransport{}
	d := NewDispatcher(a, failingTransport{})
	d.Add(b)
	fixed := time.Unix(0, 1234)
	d.now = func() time.Time { return fixed }

	est := analysis.Estimate{Raw: analysis.VowelI, Vowel: analysis.VowelE, Amount: 0.7, Level: -20, Distance: 0.3}
	d.OnEstimate(est)
	d.OnEstimate(est)

	for name, m := range map[string]*utils.MockTransport{"a": a, "b": b} {
		msgs := m.Messages()
		if len(msgs) != 2 {
			t.Fatalf("%s received %d events, want 2", name, len(msgs))
		}
		ev, ok := msgs[1].(EstimateEvent)
		if !ok {
			t.Fatalf("%s received %T", name, msgs[1])
		}
		if ev.Seq != 2 || ev.Timestamp != 1234 || ev.Name != "E" || ev.Type != TypeEstimate {
			t.Errorf("%s event = %+v", name, ev)
		}
		if ev.Estimate() != est {
			t.Errorf("%s round trip = %+v, want %+v", name, ev.Estimate(), est)
		}
	}
}

func TestDispatcherFailure(t *testing.T) {
	m := &utils.MockTransport{}
	d := NewDispatcher(m)
	d.OnFailure("worker gone")

	msgs := m.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d events, want 1", len(msgs))
	}
	b, _ := json.Marshal(msgs[0])
	if string(b) != `{"type":"failure","message":"worker gone"}` {
		t.Errorf("failure JSON = %s", b)
	}
}

func TestDispatcherClose(t *testing.T) {
	m := &utils.MockTransport{}
	boom := errors.New("boom")
	d := NewDispatcher(m, failingTransport{closeErr: boom})

	if err := d.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() = %v, want boom", err)
	}
	if !m.Closed {
		t.Error("mock transport not closed")
	}
	d.OnEstimate(analysis.Estimate{}) // no transports left, must not panic
}

func TestEstimateEventJSON(t *testing.T) {
	ev := NewEstimateEvent(7, time.Unix(1, 0), analysis.Estimate{Raw: analysis.NoVowel, Vowel: analysis.VowelU, Amount: 0.5})
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type":"estimate"`, `"seq":7`, `"raw":-1`, `"vowel":4`, `"name":"U"`, `"amount":0.5`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("JSON %s lacks %s", b, want)
		}
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(NewEstimateEvent(1, time.Now(), analysis.Estimate{})); err != nil {
		t.Error(err)
	}
	if err := lt.Send(NewFailureEvent("x")); err != nil {
		t.Error(err)
	}
	if err := lt.Send(make(chan int)); err != nil { // not marshallable
		t.Error(err)
	}
	if err := lt.Close(); err != nil {
		t.Error(err)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := newWebSocketTransport()
	defer wst.Close()
	srv := httptest.NewServer(wst)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	want := NewEstimateEvent(3, time.Unix(0, 42), analysis.Estimate{Raw: analysis.VowelA, Vowel: analysis.VowelA, Amount: 1})
	if err := wst.Send(want); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got EstimateEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst := newWebSocketTransport()
	if err := wst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := wst.Send("x"); err == nil {
		t.Error("Send after Close succeeded")
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestWriterTransport(t *testing.T) {
	est := analysis.Estimate{Raw: analysis.VowelE, Vowel: analysis.VowelA, Amount: 0.25, Level: -12.5, Distance: 0.1}
	ev := NewEstimateEvent(4, time.Unix(0, int64(1500*time.Millisecond)), est)

	var text bytes.Buffer
	wt, err := NewWriterTransport(&text, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	wt.Send(ev)
	wt.Send(NewFailureEvent("gone"))
	out := text.String()
	for _, want := range []string{"1.500s", "A ", "raw E", "amount 0.250", "-12.50 dB", "failure: gone"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output lacks %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	wt, _ = NewWriterTransport(&js, FormatJSON)
	wt.Send(ev)
	var got EstimateEvent
	if err := json.Unmarshal(js.Bytes(), &got); err != nil {
		t.Fatalf("json line: %v", err)
	}
	if got != ev {
		t.Errorf("decoded %+v, want %+v", got, ev)
	}

	if _, err := NewWriterTransport(&js, "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestDispatcherClock(t *testing.T) {
	m := &utils.MockTransport{}
	d := NewDispatcher(m)
	var tick int64
	d.SetClock(func() time.Time {
		tick++
		return time.Unix(0, tick)
	})
	d.OnEstimate(analysis.Estimate{})
	d.OnEstimate(analysis.Estimate{})

	if ev := m.Messages()[1].(EstimateEvent); ev.Timestamp != 2 {
		t.Errorf("timestamp = %d, want 2", ev.Timestamp)
	}
}
