package water

import (
	"context"
	"fmt"
)

// Actuator opens and closes the valves of one station and the shared line.
type Actuator struct {
	d          *Driver
	c          Constants
	sharedLine Pin
}

// NewActuator creates an Actuator driving the given shared line.
func NewActuator(d *Driver, c Constants, sharedLine Pin) *Actuator {
	return &Actuator{d: d, c: c, sharedLine: sharedLine}
}

// FullDose waters st for its travel time plus the soak time.
func (a *Actuator) FullDose(ctx context.Context, st Station) error {
	return a.Dose(ctx, st, st.TravelTime+a.c.SoakTime)
}

// MaintenanceDose waters st for its current travel time. Before the first
// calibration the travel time is zero and so is the dose.
func (a *Actuator) MaintenanceDose(ctx context.Context, st Station) error {
	return a.Dose(ctx, st, st.TravelTime)
}

// Dose opens the station valve, pressurizes, opens the shared line for
// duration ticks, then closes the shared line and, after the settle delay,
// the station valve.
func (a *Actuator) Dose(ctx context.Context, st Station, duration int) error {
	if err := a.OpenValve(st); err != nil {
		return err
	}
	if err := a.d.Wait(ctx, a.c.PressurizeTicks); err != nil {
		return a.abort(st, err)
	}
	if err := a.OpenLine(); err != nil {
		return a.abort(st, err)
	}
	if err := a.d.Wait(ctx, duration); err != nil {
		return a.abort(st, err)
	}
	if err := a.CloseLine(); err != nil {
		return a.abort(st, err)
	}
	if err := a.d.Wait(ctx, a.c.SettleTicks); err != nil {
		return a.abort(st, err)
	}
	if err := a.CloseValve(st); err != nil {
		return err
	}
	a.d.emit(KindDose, st.ID, duration)
	return nil
}

// OpenValve opens the station solenoid.
func (a *Actuator) OpenValve(st Station) error {
	if err := a.d.Set(st.Valve, High); err != nil {
		return fmt.Errorf("open valve %d: %w", st.ID, err)
	}
	a.d.emit(KindValve, st.ID, 1)
	return nil
}

// CloseValve closes the station solenoid.
func (a *Actuator) CloseValve(st Station) error {
	if err := a.d.Set(st.Valve, Low); err != nil {
		return fmt.Errorf("close valve %d: %w", st.ID, err)
	}
	a.d.emit(KindValve, st.ID, 0)
	return nil
}

// OpenLine opens the shared supply line.
func (a *Actuator) OpenLine() error {
	if err := a.d.Set(a.sharedLine, High); err != nil {
		return fmt.Errorf("open shared line: %w", err)
	}
	a.d.emit(KindLine, 0, 1)
	return nil
}

// CloseLine closes the shared supply line.
func (a *Actuator) CloseLine() error {
	if err := a.d.Set(a.sharedLine, Low); err != nil {
		return fmt.Errorf("close shared line: %w", err)
	}
	a.d.emit(KindLine, 0, 0)
	return nil
}

// CloseAll closes the shared line first and then every station valve,
// reporting the first failure.
func (a *Actuator) CloseAll(stations []Station) error {
	first := a.CloseLine()
	for _, st := range stations {
		if err := a.CloseValve(st); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// abort closes whatever the interrupted dose left open and returns cause.
// The station valve is closed even when the shared line will not close.
func (a *Actuator) abort(st Station, cause error) error {
	_ = a.CloseLine()
	_ = a.CloseValve(st)
	return cause
}
