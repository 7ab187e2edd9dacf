package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/water"
)

// Platform simulates the controller board and three plant pots. It
// implements water.Platform and water.AnalogSelector.
type Platform struct {
	cfg    *config.SimConfig
	wiring water.Wiring

	mu       sync.RWMutex
	soils    []soil
	outputs  map[water.Pin]water.Level
	selected map[water.Channel]bool
	ticks    int64
	reads    int
}

var (
	_ water.Platform       = (*Platform)(nil)
	_ water.AnalogSelector = (*Platform)(nil)
)

// New creates a simulated platform for the given wiring.
func New(cfg *config.SimConfig, w water.Wiring) *Platform {
	if cfg == nil {
		cfg = &config.Default().Sim
	}

	soils := make([]soil, len(w.Stations))
	for i := range soils {
		if i < len(cfg.Initial) {
			soils[i].moisture = float32(cfg.Initial[i])
		} else {
			soils[i].moisture = cfg.DryFloor
		}
		if i < len(cfg.TravelTicks) {
			soils[i].travel = float32(cfg.TravelTicks[i])
		}
	}

	return &Platform{
		cfg:      cfg,
		wiring:   w,
		soils:    soils,
		outputs:  make(map[water.Pin]water.Level),
		selected: make(map[water.Channel]bool),
	}
}

// Delay advances the soil model by ticks, pacing it in wall-clock time when
// a tick duration is configured.
func (p *Platform) Delay(ctx context.Context, ticks int) error {
	if err := p.pace(ctx, time.Duration(ticks)*p.cfg.Tick); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.anyFlowing() {
		for i := range p.soils {
			p.soils[i].dry(p.cfg, ticks)
		}
		p.ticks += int64(ticks)
		return nil
	}

	for t := 0; t < ticks; t++ {
		for i, st := range p.wiring.Stations {
			p.soils[i].step(p.cfg, p.flowing(st))
		}
	}
	p.ticks += int64(ticks)
	return nil
}

// DelaySub waits for subTicks. The soil does not change at that resolution.
func (p *Platform) DelaySub(ctx context.Context, subTicks int) error {
	return p.pace(ctx, time.Duration(subTicks)*p.cfg.SubTick)
}

// ReadAnalog returns the moisture of the probe wired to ch. An unpowered or
// unselected probe reads 0.
func (p *Platform) ReadAnalog(ch water.Channel) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.stationIndex(ch)
	if i < 0 {
		return 0, fmt.Errorf("no probe on channel %d", ch)
	}
	if p.outputs[p.wiring.Stations[i].SensePin] != water.High || !p.selected[ch] {
		return 0, nil
	}

	p.reads++
	noise := math32.Sin(float32(p.reads)*1.7) * p.cfg.NoiseLevel
	return p.soils[i].reading(noise), nil
}

// SetOutput drives a simulated output.
func (p *Platform) SetOutput(pin water.Pin, level water.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputs[pin] = level
	return nil
}

// SelectAnalog routes ch to the converter.
func (p *Platform) SelectAnalog(ch water.Channel, enable uint16, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		p.selected[ch] = true
	} else {
		delete(p.selected, ch)
	}
	return nil
}

// Output returns the level of pin.
func (p *Platform) Output(pin water.Pin) water.Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.outputs[pin]
}

// Moisture returns the true moisture of the station with the given id.
func (p *Platform) Moisture(id int) float32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, st := range p.wiring.Stations {
		if st.ID == id {
			return p.soils[i].moisture
		}
	}
	return 0
}

// Ticks returns the simulated time.
func (p *Platform) Ticks() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ticks
}

func (p *Platform) pace(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.cfg.MaxDelay > 0 && d > p.cfg.MaxDelay {
		d = p.cfg.MaxDelay
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Platform) flowing(st water.Station) bool {
	return bool(p.outputs[st.Valve]) && bool(p.outputs[p.wiring.SharedLine])
}

func (p *Platform) anyFlowing() bool {
	for _, st := range p.wiring.Stations {
		if p.flowing(st) {
			return true
		}
	}
	return false
}

func (p *Platform) stationIndex(ch water.Channel) int {
	for i, st := range p.wiring.Stations {
		if st.Channel == ch {
			return i
		}
	}
	return -1
}
