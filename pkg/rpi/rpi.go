package rpi

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/water"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Converter reads analog inputs.
type Converter interface {
	Read(ch int) (int, error)
}

// Platform drives the controller from a Linux board: valves, probe supplies
// and the shared line on GPIO outputs, probes on an SPI converter.
type Platform struct {
	tick    time.Duration
	subTick time.Duration
	outputs map[water.Pin]gpio.PinOut
	adc     Converter
	closer  io.Closer
}

var _ water.Platform = (*Platform)(nil)

// Open initializes the host drivers, claims every configured output driven
// Low and connects to the converter.
func Open(cfg *config.Config) (*Platform, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}

	outputs := make(map[water.Pin]gpio.PinOut, len(cfg.RPi.Outputs))
	for token, name := range cfg.RPi.Outputs {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown GPIO %q for output %d", name, token)
		}
		outputs[water.Pin(token)] = p
	}

	port, err := spireg.Open(cfg.RPi.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.RPi.SPIPort, err)
	}
	conn, err := port.Connect(physic.Frequency(cfg.RPi.SPIHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect to SPI port %q: %w", cfg.RPi.SPIPort, err)
	}

	p, err := NewPlatform(cfg.Timing, outputs, NewMCP3008(conn))
	if err != nil {
		port.Close()
		return nil, err
	}
	p.closer = port
	return p, nil
}

// NewPlatform creates a Platform on already opened outputs and converter.
// Every output is driven Low.
func NewPlatform(timing config.TimingConfig, outputs map[water.Pin]gpio.PinOut, adc Converter) (*Platform, error) {
	p := &Platform{
		tick:    timing.Tick,
		subTick: timing.SubTick,
		outputs: outputs,
		adc:     adc,
	}
	for _, pin := range p.pins() {
		if err := p.SetOutput(pin, water.Low); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Delay sleeps for ticks.
func (p *Platform) Delay(ctx context.Context, ticks int) error {
	return sleep(ctx, time.Duration(ticks)*p.tick)
}

// DelaySub sleeps for subTicks.
func (p *Platform) DelaySub(ctx context.Context, subTicks int) error {
	return sleep(ctx, time.Duration(subTicks)*p.subTick)
}

// ReadAnalog converts channel ch.
func (p *Platform) ReadAnalog(ch water.Channel) (int, error) {
	return p.adc.Read(int(ch))
}

// SetOutput drives pin to level.
func (p *Platform) SetOutput(pin water.Pin, level water.Level) error {
	out, ok := p.outputs[pin]
	if !ok {
		return fmt.Errorf("output %d is not mapped to a GPIO", pin)
	}
	if err := out.Out(gpio.Level(level)); err != nil {
		return fmt.Errorf("failed to drive output %d: %w", pin, err)
	}
	return nil
}

// Close drives every output Low and releases the converter.
func (p *Platform) Close() error {
	for _, pin := range p.pins() {
		if err := p.SetOutput(pin, water.Low); err != nil {
			log.Printf("Error releasing output %d: %v", pin, err)
		}
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func (p *Platform) pins() []water.Pin {
	pins := make([]water.Pin, 0, len(p.outputs))
	for pin := range p.outputs {
		pins = append(pins, pin)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
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
