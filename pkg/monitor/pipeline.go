package monitor

import (
	"io"
	"log"

	"github.com/itohio/gowater/pkg/water"
)

// Stage transforms an event stream. Stages close their output once their
// input closes.
type Stage func(in <-chan water.Event) <-chan water.Event

// Tee duplicates in onto two channels. Both outputs must be drained.
func Tee(in <-chan water.Event, bufSize int) (<-chan water.Event, <-chan water.Event) {
	if bufSize <= 0 {
		bufSize = 100
	}
	a := make(chan water.Event, bufSize)
	b := make(chan water.Event, bufSize)

	go func() {
		defer close(a)
		defer close(b)
		for e := range in {
			a <- e
			b <- e
		}
	}()

	return a, b
}

// NewTraceWriter returns a Stage that writes every event as a trace line to
// w and passes it on unchanged. Write errors are logged once and further
// writes are skipped.
func NewTraceWriter(w io.Writer, bufSize int) Stage {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan water.Event) <-chan water.Event {
		out := make(chan water.Event, bufSize)

		go func() {
			defer close(out)

			var line []byte
			failed := false
			for e := range in {
				if !failed {
					line = e.AppendTrace(line[:0])
					if _, err := w.Write(line); err != nil {
						log.Printf("Failed to write trace: %v", err)
						failed = true
					}
				}
				out <- e
			}
		}()

		return out
	}
}

// NewKindFilter returns a Stage that passes only the given kinds.
func NewKindFilter(bufSize int, kinds ...water.Kind) Stage {
	if bufSize <= 0 {
		bufSize = 100
	}
	var mask uint32
	for _, k := range kinds {
		mask |= 1 << k
	}

	return func(in <-chan water.Event) <-chan water.Event {
		out := make(chan water.Event, bufSize)

		go func() {
			defer close(out)
			for e := range in {
				if mask&(1<<e.Kind) != 0 {
					out <- e
				}
			}
		}()

		return out
	}
}
