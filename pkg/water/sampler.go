package water

import (
	"context"
	"fmt"
)

// Sampler reads station moisture probes. The converter is shared, so calls
// must not overlap.
type Sampler struct {
	d *Driver
	c Constants
}

// NewSampler creates a Sampler.
func NewSampler(d *Driver, c Constants) *Sampler {
	return &Sampler{d: d, c: c}
}

// Sense powers the probe of st, waits for it to settle, takes one
// conversion and powers the probe down again. Lower values mean drier soil.
func (s *Sampler) Sense(ctx context.Context, st Station) (int, error) {
	if err := s.PowerUp(ctx, st); err != nil {
		_ = s.PowerDown(st)
		return 0, err
	}
	v, err := s.Convert(st)
	if perr := s.PowerDown(st); err == nil {
		err = perr
	}
	return v, err
}

// PowerUp energizes the probe, routes its converter input and waits the
// sensor settle time.
func (s *Sampler) PowerUp(ctx context.Context, st Station) error {
	if err := s.d.Set(st.SensePin, High); err != nil {
		return fmt.Errorf("power up sensor %d: %w", st.ID, err)
	}
	if err := s.d.selectAnalog(st.Channel, st.AnalogEnable, true); err != nil {
		return fmt.Errorf("select input for sensor %d: %w", st.ID, err)
	}
	s.d.emit(KindSensor, st.ID, 1)
	return s.d.WaitSub(ctx, s.c.SensorSettle)
}

// Convert performs a single conversion on the probe of st. The probe must
// already be powered.
func (s *Sampler) Convert(st Station) (int, error) {
	v, err := s.d.Read(st.Channel)
	if err != nil {
		return 0, fmt.Errorf("read sensor %d: %w", st.ID, err)
	}
	s.d.emit(KindSample, st.ID, v)
	if !s.c.checkSample(v) {
		s.d.emit(KindFault, st.ID, v)
		return v, &FaultError{Station: st.ID, Value: v, Err: ErrSampleRange}
	}
	return v, nil
}

// PowerDown releases the converter input and de-energizes the probe.
func (s *Sampler) PowerDown(st Station) error {
	if err := s.d.selectAnalog(st.Channel, st.AnalogEnable, false); err != nil {
		return fmt.Errorf("release input for sensor %d: %w", st.ID, err)
	}
	if err := s.d.Set(st.SensePin, Low); err != nil {
		return fmt.Errorf("power down sensor %d: %w", st.ID, err)
	}
	s.d.emit(KindSensor, st.ID, 0)
	return nil
}
