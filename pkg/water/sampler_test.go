package water

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_SenseSequence(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[1]
	f.script(st.Channel, 345)

	s := NewSampler(NewDriver(f), DefaultConstants())
	v, err := s.Sense(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 345, v)

	want := []op{
		{kind: opSet, pin: st.SensePin, level: High},
		{kind: opSelect, ch: st.Channel, n: int(st.AnalogEnable), level: High},
		{kind: opDelaySub, n: DefaultSensorSettle},
		{kind: opRead, ch: st.Channel},
		{kind: opSelect, ch: st.Channel, n: int(st.AnalogEnable), level: Low},
		{kind: opSet, pin: st.SensePin, level: Low},
	}
	assert.Equal(t, want, f.ops)
	assert.Equal(t, Low, f.outputs[st.SensePin])
}

func TestSampler_SenseCancelledPowersDown(t *testing.T) {
	f := newFakePlatform()
	st := DefaultWiring().Stations[0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSampler(NewDriver(f), DefaultConstants())
	_, err := s.Sense(ctx, st)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Low, f.outputs[st.SensePin])
}

func TestSampler_SampleLimits(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		value    int
		wantErr  bool
	}{
		{name: "validation disabled", min: 0, max: 0, value: 5000},
		{name: "inside limits", min: 10, max: 1000, value: 500},
		{name: "at lower limit", min: 10, max: 1000, value: 10},
		{name: "below lower limit", min: 10, max: 1000, value: 3, wantErr: true},
		{name: "above upper limit", min: 10, max: 1000, value: 1023, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakePlatform()
			st := DefaultWiring().Stations[0]
			f.script(st.Channel, tt.value)

			c := DefaultConstants()
			c.SampleMin = tt.min
			c.SampleMax = tt.max

			v, err := NewSampler(NewDriver(f), c).Convert(st)
			assert.Equal(t, tt.value, v)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSampleRange)
				var fe *FaultError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, st.ID, fe.Station)
				assert.Equal(t, tt.value, fe.Value)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
