package water

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalibrator(f *fakePlatform, c Constants) (*Calibrator, *recorder) {
	d := NewDriver(f)
	rec := &recorder{}
	d.OnEvent(rec.observe)
	w := DefaultWiring()
	s := NewSampler(d, c)
	return NewCalibrator(d, c, s, NewActuator(d, c, w.SharedLine)), rec
}

func TestContinueTravel(t *testing.T) {
	tests := []struct {
		name    string
		stop    TravelStop
		dryness int
		steps   int
		want    bool
	}{
		{"literal dry in budget", StopWhenWetAndExhausted, 100, 0, true},
		{"literal wet in budget", StopWhenWetAndExhausted, 700, 3, true},
		{"literal dry exhausted", StopWhenWetAndExhausted, 100, 5, true},
		{"literal wet exhausted", StopWhenWetAndExhausted, 600, 5, false},
		{"corrected dry in budget", StopWhenWetOrExhausted, 100, 0, true},
		{"corrected wet in budget", StopWhenWetOrExhausted, 700, 3, false},
		{"corrected dry exhausted", StopWhenWetOrExhausted, 100, 5, false},
		{"corrected wet exhausted", StopWhenWetOrExhausted, 600, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConstants()
			c.TravelStop = tt.stop
			assert.Equal(t, tt.want, c.continueTravel(tt.dryness, tt.steps))
		})
	}
}

// The literal condition keeps stepping after the probe is wet until the
// budget is spent, so a run that is wet at step 3 still trips the alarm.
func TestCalibrate_LiteralWetWithinBudgetTripsAlarm(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]
	f.script(st.Channel, 150, 300, 450, 700)

	cal, rec := newTestCalibrator(f, DefaultConstants())
	steps, err := cal.Calibrate(context.Background(), &st)

	assert.Equal(t, DefaultMaxTravel, steps)
	assert.ErrorIs(t, err, ErrTravelExceeded)
	assert.Equal(t, 0, st.TravelTime)
	assert.Len(t, rec.of(KindFault), 1)
	assert.Empty(t, rec.of(KindTravel))
	assert.Equal(t, Low, f.outputs[st.Valve])
	assert.Equal(t, Low, f.outputs[DefaultWiring().SharedLine])
}

func TestCalibrate_LiteralWetAfterBudget(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]
	f.script(st.Channel, 150, 100, 100, 100, 100, 100, 100, 700)

	cal, _ := newTestCalibrator(f, DefaultConstants())
	steps, err := cal.Calibrate(context.Background(), &st)

	assert.Equal(t, 7, steps)
	var fe *FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 7, fe.Value)
	assert.Equal(t, st.ID, fe.Station)
}

// Under the literal condition a probe that never reports wet keeps the loop
// going; only cancellation ends it.
func TestCalibrate_LiteralNeverWetRunsUntilCancelled(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]
	f.script(st.Channel, 150)

	delays := 0
	f.stop = func(int) error {
		delays++
		if delays > 50 {
			return errStop
		}
		return nil
	}

	cal, _ := newTestCalibrator(f, DefaultConstants())
	steps, err := cal.Calibrate(context.Background(), &st)

	assert.ErrorIs(t, err, errStop)
	assert.Greater(t, steps, DefaultMaxTravel)
	assert.Equal(t, Low, f.outputs[st.Valve])
	assert.Equal(t, Low, f.outputs[DefaultWiring().SharedLine])
}

func TestCalibrate_CorrectedWetWithinBudget(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]
	f.script(st.Channel, 150, 300, 450, 700)

	c := DefaultConstants()
	c.TravelStop = StopWhenWetOrExhausted
	cal, rec := newTestCalibrator(f, c)

	steps, err := cal.Calibrate(context.Background(), &st)
	require.NoError(t, err)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 3, st.TravelTime)

	travel := rec.of(KindTravel)
	require.Len(t, travel, 1)
	assert.Equal(t, 3, travel[0].Value)

	// pressurize, three advance steps, settle
	assert.Equal(t, []int{1, 1, 1, 1, 2}, f.delays())

	// The valve is fully closed before the travel time is published.
	last := f.ops[len(f.ops)-1]
	assert.Equal(t, op{kind: opSet, pin: st.Valve, level: Low}, last)
}

func TestCalibrate_CorrectedBudgetExhausted(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]
	st.TravelTime = 2
	f.script(st.Channel, 150)

	c := DefaultConstants()
	c.TravelStop = StopWhenWetOrExhausted
	cal, _ := newTestCalibrator(f, c)

	steps, err := cal.Calibrate(context.Background(), &st)
	assert.Equal(t, DefaultMaxTravel, steps)
	assert.ErrorIs(t, err, ErrTravelExceeded)
	assert.True(t, IsFault(err))
	assert.Equal(t, 2, st.TravelTime)
}

func TestCalibrate_StepCounterNeverExceedsBudgetWhenCorrected(t *testing.T) {
	for wetAt := 1; wetAt <= 8; wetAt++ {
		f := newFakePlatform()
		st := DefaultWiring().Stations[2]
		values := []int{150}
		for i := 1; i < wetAt; i++ {
			values = append(values, 100)
		}
		values = append(values, 650)
		f.script(st.Channel, values...)

		c := DefaultConstants()
		c.TravelStop = StopWhenWetOrExhausted
		cal, _ := newTestCalibrator(f, c)

		steps, err := cal.Calibrate(context.Background(), &st)
		assert.LessOrEqual(t, steps, DefaultMaxTravel, "wet at %d", wetAt)
		if wetAt < DefaultMaxTravel {
			assert.NoError(t, err, "wet at %d", wetAt)
			assert.Equal(t, wetAt, st.TravelTime)
		} else {
			assert.ErrorIs(t, err, ErrTravelExceeded, "wet at %d", wetAt)
		}
	}
}

func TestCalibrate_ClosesValveWhenLineSticks(t *testing.T) {
	f := newFakePlatform()
	w := DefaultWiring()
	st := w.Stations[1]
	f.script(st.Channel, 150, 300, 700)
	f.failSet = lineStuckOpen(w.SharedLine)

	c := DefaultConstants()
	c.TravelStop = StopWhenWetOrExhausted
	cal, rec := newTestCalibrator(f, c)

	_, err := cal.Calibrate(context.Background(), &st)
	assert.ErrorIs(t, err, errStuck)
	assert.Equal(t, Low, f.outputs[st.Valve])
	assert.Equal(t, 0, st.TravelTime)
	assert.Empty(t, rec.of(KindTravel))
}
