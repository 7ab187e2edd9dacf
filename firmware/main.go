//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	"github.com/itohio/gowater/pkg/water"
)

var (
	errNoPin     = errors.New("output not wired")
	errNoChannel = errors.New("analog channel not wired")

	uart = machine.UART0

	adcs [len(analogPins)]machine.ADC

	// Trace line buffer, reused for every event
	traceBuf [32]byte
)

// board implements water.Platform on the XIAO pins.
type board struct{}

func (board) Delay(ctx context.Context, ticks int) error {
	return sleep(ctx, time.Duration(ticks)*TICK)
}

func (board) DelaySub(ctx context.Context, subTicks int) error {
	return sleep(ctx, time.Duration(subTicks)*SUB_TICK)
}

// ReadAnalog returns a 10-bit conversion. machine.ADC.Get always returns
// 16-bit values.
func (board) ReadAnalog(ch water.Channel) (int, error) {
	if int(ch) >= len(analogPins) || analogPins[ch] == machine.NoPin {
		return 0, errNoChannel
	}
	return int(adcs[ch].Get() >> 6), nil
}

func (board) SetOutput(pin water.Pin, level water.Level) error {
	if int(pin) >= len(outputPins) || outputPins[pin] == machine.NoPin {
		return errNoPin
	}
	outputPins[pin].Set(level == water.High)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	time.Sleep(d)
	return nil
}

func main() {
	// Configure outputs and start with everything off
	for _, pin := range outputPins {
		if pin == machine.NoPin {
			continue
		}
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	machine.InitADC()
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for ch, pin := range analogPins {
		if pin == machine.NoPin {
			continue
		}
		adcs[ch] = machine.ADC{Pin: pin}
		adcs[ch].Configure(adcConfig)
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	s := water.NewSequencer(board{}, water.DefaultConstants(), water.DefaultWiring())
	s.OnEvent(func(e water.Event) {
		uart.Write(e.AppendTrace(traceBuf[:0]))
	})

	// Run only returns after a fault once the alarm is stopped, which never
	// happens here.
	err := s.Run(context.Background())
	println("controller stopped:", err.Error())
	for {
		time.Sleep(time.Hour)
	}
}
