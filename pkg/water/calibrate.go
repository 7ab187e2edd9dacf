package water

import "context"

// Calibrator measures how long water takes to reach a station probe.
type Calibrator struct {
	d       *Driver
	c       Constants
	sampler *Sampler
	act     *Actuator
}

// NewCalibrator creates a Calibrator.
func NewCalibrator(d *Driver, c Constants, sampler *Sampler, act *Actuator) *Calibrator {
	return &Calibrator{d: d, c: c, sampler: sampler, act: act}
}

// Calibrate runs water towards the probe of st one tick at a time until the
// continuation condition selected by Constants.TravelStop fails. The probe
// must be powered and the valves closed.
//
// On success the step count is stored in st.TravelTime and returned. When the
// count reaches MaxTravel the valves are closed and a *FaultError wrapping
// ErrTravelExceeded is returned; TravelTime is left untouched.
func (c *Calibrator) Calibrate(ctx context.Context, st *Station) (int, error) {
	dryness, err := c.sampler.Convert(*st)
	if err != nil {
		return 0, err
	}

	if err := c.act.OpenValve(*st); err != nil {
		return 0, err
	}
	if err := c.d.Wait(ctx, c.c.PressurizeTicks); err != nil {
		return 0, c.act.abort(*st, err)
	}

	steps := 0
	for c.c.continueTravel(dryness, steps) {
		if err := c.act.OpenLine(); err != nil {
			return steps, c.act.abort(*st, err)
		}
		if err := c.d.Wait(ctx, 1); err != nil {
			return steps, c.act.abort(*st, err)
		}
		dryness, err = c.sampler.Convert(*st)
		if err != nil {
			return steps, c.act.abort(*st, err)
		}
		steps++
	}

	if err := c.act.CloseLine(); err != nil {
		return steps, c.act.abort(*st, err)
	}
	if err := c.d.Wait(ctx, c.c.SettleTicks); err != nil {
		return steps, c.act.abort(*st, err)
	}
	if err := c.act.CloseValve(*st); err != nil {
		return steps, err
	}

	if steps >= c.c.MaxTravel {
		c.d.emit(KindFault, st.ID, steps)
		return steps, &FaultError{Station: st.ID, Value: steps, Err: ErrTravelExceeded}
	}

	st.TravelTime = steps
	c.d.emit(KindTravel, st.ID, steps)
	return steps, nil
}
