package water

import (
	"context"
	"sync"
	"sync/atomic"
)

// Platform is the peripheral layer the sequencer runs on. Calls block until
// the hardware has done its part; Delay and DelaySub return early with the
// context error when ctx is cancelled.
type Platform interface {
	Delay(ctx context.Context, ticks int) error
	DelaySub(ctx context.Context, subTicks int) error
	ReadAnalog(ch Channel) (int, error)
	SetOutput(pin Pin, level Level) error
}

// AnalogSelector is implemented by platforms whose converter inputs must be
// routed and enabled before a conversion.
type AnalogSelector interface {
	SelectAnalog(ch Channel, enable uint16, on bool) error
}

// Driver wraps a Platform with a virtual tick clock and event fan-out. The
// sampler, calibrator, actuator and alarm of one controller share a Driver.
type Driver struct {
	p       Platform
	elapsed atomic.Int64

	obsMu     sync.RWMutex
	observers []func(Event)
}

// NewDriver creates a Driver on top of p.
func NewDriver(p Platform) *Driver {
	return &Driver{p: p}
}

// Platform returns the underlying platform.
func (d *Driver) Platform() Platform {
	return d.p
}

// OnEvent registers fn to receive every event. Observers run synchronously
// on the controller goroutine and must return quickly.
func (d *Driver) OnEvent(fn func(Event)) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	d.observers = append(d.observers, fn)
}

// Elapsed returns the number of ticks waited so far.
func (d *Driver) Elapsed() int64 {
	return d.elapsed.Load()
}

// Wait blocks for n ticks and advances the clock by the ticks actually
// waited. A non-positive n returns immediately.
func (d *Driver) Wait(ctx context.Context, n int) error {
	if n <= 0 {
		return ctx.Err()
	}
	if err := d.p.Delay(ctx, n); err != nil {
		return err
	}
	d.elapsed.Add(int64(n))
	return nil
}

// WaitSub blocks for n sub-ticks. Sub-ticks do not advance the clock.
func (d *Driver) WaitSub(ctx context.Context, n int) error {
	if n <= 0 {
		return ctx.Err()
	}
	return d.p.DelaySub(ctx, n)
}

// Set drives pin to level.
func (d *Driver) Set(pin Pin, level Level) error {
	return d.p.SetOutput(pin, level)
}

// Read performs one conversion on ch.
func (d *Driver) Read(ch Channel) (int, error) {
	return d.p.ReadAnalog(ch)
}

func (d *Driver) selectAnalog(ch Channel, enable uint16, on bool) error {
	if sel, ok := d.p.(AnalogSelector); ok {
		return sel.SelectAnalog(ch, enable, on)
	}
	return nil
}

func (d *Driver) emit(kind Kind, station, value int) {
	e := Event{Tick: d.elapsed.Load(), Kind: kind, Station: station, Value: value}

	d.obsMu.RLock()
	observers := make([]func(Event), len(d.observers))
	copy(observers, d.observers)
	d.obsMu.RUnlock()

	for _, fn := range observers {
		if fn != nil {
			fn(e)
		}
	}
}
