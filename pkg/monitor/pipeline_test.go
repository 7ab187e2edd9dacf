package monitor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/water"
	"github.com/stretchr/testify/assert"
)

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("disk full")
}

func feed(events ...water.Event) <-chan water.Event {
	in := make(chan water.Event, len(events))
	for _, e := range events {
		in <- e
	}
	close(in)
	return in
}

func drain(in <-chan water.Event) []water.Event {
	var out []water.Event
	for e := range in {
		out = append(out, e)
	}
	return out
}

func TestTraceWriter(t *testing.T) {
	var buf bytes.Buffer
	events := []water.Event{
		ev(0, water.KindState, 1, int(water.Sensing)),
		ev(61, water.KindDose, 1, 6),
	}

	out := drain(NewTraceWriter(&buf, 0)(feed(events...)))

	assert.Equal(t, events, out)
	assert.Equal(t, "0,state,1,1\n61,dose,1,6\n", buf.String())
}

func TestTraceWriter_WriteErrorKeepsForwarding(t *testing.T) {
	w := &failingWriter{}
	events := []water.Event{ev(0, water.KindSleep, 0, 1), ev(1, water.KindSleep, 0, 1)}

	out := drain(NewTraceWriter(w, 1)(feed(events...)))

	assert.Len(t, out, 2)
	assert.Equal(t, 1, w.calls)
}

func TestKindFilter(t *testing.T) {
	events := []water.Event{
		ev(0, water.KindState, 1, int(water.Sensing)),
		ev(0, water.KindSample, 1, 300),
		ev(0, water.KindFault, 1, 5),
	}

	out := drain(NewKindFilter(0, water.KindState, water.KindFault)(feed(events...)))

	assert.Equal(t, []water.Event{events[0], events[2]}, out)
}

func TestTee(t *testing.T) {
	events := []water.Event{ev(0, water.KindAlarm, 0, 1), ev(1, water.KindAlarm, 0, 0)}
	a, b := Tee(feed(events...), 4)

	// Buffers are large enough to drain one side after the other.
	assert.Equal(t, events, drain(a))
	assert.Equal(t, events, drain(b))
}

func TestProcessEvents_NoCallbacksAfterClose(t *testing.T) {
	m := New(config.Default())
	calls := 0
	m.OnUpdate(func(Snapshot) { calls++ })

	m.ProcessEvents(feed(ev(0, water.KindSleep, 0, 1), ev(1, water.KindSleep, 0, 1)))
	assert.Equal(t, 2, calls)

	m.Observe(ev(2, water.KindSleep, 0, 1))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 3, m.Snapshot().Cycles)

	m.ResetShutdown()
	m.Observe(ev(3, water.KindSleep, 0, 1))
	assert.Equal(t, 3, calls)
}
