package water

import (
	"context"
	"errors"
	"sync"
)

// Sequencer is the per-station state machine. It visits the stations in
// wiring order, one at a time, so the converter and the shared line are
// never used by two stations at once.
type Sequencer struct {
	d      *Driver
	c      Constants
	wiring Wiring

	sampler    *Sampler
	calibrator *Calibrator
	actuator   *Actuator
	alarm      *Alarm

	mu       sync.RWMutex
	stations []Station
	state    State
	current  int
}

// NewSequencer creates a Sequencer for the given wiring. The stations are
// copied; the sequencer owns their travel times from here on.
func NewSequencer(p Platform, c Constants, w Wiring) *Sequencer {
	d := NewDriver(p)
	sampler := NewSampler(d, c)
	act := NewActuator(d, c, w.SharedLine)

	stations := make([]Station, len(w.Stations))
	copy(stations, w.Stations)

	return &Sequencer{
		d:          d,
		c:          c,
		wiring:     w,
		sampler:    sampler,
		calibrator: NewCalibrator(d, c, sampler, act),
		actuator:   act,
		alarm:      NewAlarm(d, c, w.Indicators),
		stations:   stations,
		state:      Idle,
	}
}

// Driver returns the driver shared by all components.
func (s *Sequencer) Driver() *Driver {
	return s.d
}

// Wiring returns the wiring the sequencer was built with.
func (s *Sequencer) Wiring() Wiring {
	return s.wiring
}

// OnEvent registers an observer for progress events.
func (s *Sequencer) OnEvent(fn func(Event)) {
	s.d.OnEvent(fn)
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns the id of the station being processed, or 0.
func (s *Sequencer) Current() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Stations returns a copy of the stations including their travel times.
func (s *Sequencer) Stations() []Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Station, len(s.stations))
	copy(out, s.stations)
	return out
}

// Run executes watering cycles until ctx is cancelled or a fault occurs.
// Each cycle visits every station and then sleeps Constants.CycleSleep
// ticks. A fault closes all valves and hands control to the alarm, which
// only returns when ctx is cancelled; the returned error then wraps both
// the fault and the context error.
func (s *Sequencer) Run(ctx context.Context) error {
	for {
		if err := s.RunCycle(ctx); err != nil {
			if IsFault(err) {
				return errors.Join(err, s.alarm.Run(ctx))
			}
			return err
		}

		s.setState(0, Sleeping)
		s.d.emit(KindSleep, 0, s.c.CycleSleep)
		if err := s.d.Wait(ctx, s.c.CycleSleep); err != nil {
			s.setState(0, Idle)
			return err
		}
		s.setState(0, Idle)
	}
}

// RunCycle visits every station once. On a fault the controller is left in
// the Fault state with all valves closed and the *FaultError is returned.
func (s *Sequencer) RunCycle(ctx context.Context) error {
	if s.State() == Fault {
		return ErrFaulted
	}
	for i := range s.stations {
		if err := s.processStation(ctx, i); err != nil {
			if IsFault(err) {
				s.enterFault(s.stations[i].ID)
			} else {
				s.setState(0, Idle)
			}
			return err
		}
	}
	return nil
}

// ProcessStation runs one station visit for the station with the given id.
func (s *Sequencer) ProcessStation(ctx context.Context, id int) error {
	if s.State() == Fault {
		return ErrFaulted
	}
	for i := range s.stations {
		if s.stations[i].ID != id {
			continue
		}
		err := s.processStation(ctx, i)
		if err != nil && IsFault(err) {
			s.enterFault(id)
		}
		return err
	}
	return ErrUnknownStation
}

func (s *Sequencer) processStation(ctx context.Context, i int) error {
	st := s.station(i)

	s.setState(st.ID, Sensing)
	if err := s.sampler.PowerUp(ctx, st); err != nil {
		_ = s.sampler.PowerDown(st)
		return err
	}
	if err := s.visit(ctx, i); err != nil {
		_ = s.sampler.PowerDown(s.station(i))
		return err
	}
	if err := s.sampler.PowerDown(s.station(i)); err != nil {
		return err
	}
	s.setState(st.ID, Idle)
	return nil
}

// visit runs the decision and dosing part of a station visit with the probe
// powered.
func (s *Sequencer) visit(ctx context.Context, i int) error {
	st := s.station(i)

	dryness, err := s.sampler.Convert(st)
	if err != nil {
		return err
	}

	if dryness < s.c.MoistureMin {
		s.setState(st.ID, DryPath)
		if _, err := s.calibrator.Calibrate(ctx, &st); err != nil {
			return err
		}
		s.mu.Lock()
		s.stations[i].TravelTime = st.TravelTime
		s.mu.Unlock()

		if err := s.d.Wait(ctx, s.c.DrainTicks); err != nil {
			return err
		}
		if err := s.actuator.FullDose(ctx, st); err != nil {
			return err
		}
	} else {
		s.setState(st.ID, WetPath)
	}

	s.setState(st.ID, MaintenanceDose)
	return s.actuator.MaintenanceDose(ctx, st)
}

func (s *Sequencer) enterFault(id int) {
	_ = s.actuator.CloseAll(s.Stations())
	s.setState(id, Fault)
}

func (s *Sequencer) station(i int) Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stations[i]
}

func (s *Sequencer) setState(station int, state State) {
	s.mu.Lock()
	s.state = state
	s.current = station
	s.mu.Unlock()
	s.d.emit(KindState, station, int(state))
}
