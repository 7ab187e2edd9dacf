package water

import "context"

// Alarm blinks the fault indicators. It is the terminal state of the
// controller; only a reset leaves it.
type Alarm struct {
	d          *Driver
	c          Constants
	indicators []Pin
}

// NewAlarm creates an Alarm blinking the given indicators.
func NewAlarm(d *Driver, c Constants, indicators []Pin) *Alarm {
	return &Alarm{d: d, c: c, indicators: indicators}
}

// Run toggles all indicators on and off with Constants.AlarmPeriod ticks per
// phase. It never returns on its own; it returns the delay error once ctx is
// cancelled, with the indicators left dark.
func (a *Alarm) Run(ctx context.Context) error {
	period := a.c.AlarmPeriod
	if period <= 0 {
		period = 1
	}
	for {
		a.set(High)
		if err := a.d.Wait(ctx, period); err != nil {
			a.set(Low)
			return err
		}
		a.set(Low)
		if err := a.d.Wait(ctx, period); err != nil {
			return err
		}
	}
}

func (a *Alarm) set(level Level) {
	// Indicator failures cannot be reported anywhere from here.
	for _, pin := range a.indicators {
		_ = a.d.Set(pin, level)
	}
	a.d.emit(KindAlarm, 0, levelValue(level))
}
