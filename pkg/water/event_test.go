package water

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_AppendTrace(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"state", Event{Tick: 0, Kind: KindState, Station: 1, Value: int(Sensing)}, "0,state,1,1\n"},
		{"sample", Event{Tick: 61, Kind: KindSample, Station: 2, Value: 1023}, "61,sample,2,1023\n"},
		{"line", Event{Tick: 172800, Kind: KindLine, Value: 1}, "172800,line,0,1\n"},
		{"sleep", Event{Tick: 12, Kind: KindSleep, Value: DefaultCycleSleep}, "12,sleep,0,172800\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.event.AppendTrace(nil)))
		})
	}
}

func TestParseKind(t *testing.T) {
	for k := KindState; k <= KindFault; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("flood")
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "DryPath", DryPath.String())
	assert.Equal(t, "Fault", Fault.String())
	assert.Equal(t, "UnknownState42", State(42).String())
}

func TestTravelStop_Parse(t *testing.T) {
	for _, ts := range []TravelStop{StopWhenWetAndExhausted, StopWhenWetOrExhausted} {
		got, err := ParseTravelStop(ts.String())
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	}

	got, err := ParseTravelStop("")
	require.NoError(t, err)
	assert.Equal(t, StopWhenWetAndExhausted, got)

	_, err = ParseTravelStop("sometimes")
	assert.Error(t, err)
}

func TestDefaultConstants(t *testing.T) {
	c := DefaultConstants()
	assert.Equal(t, 200, c.MoistureMin)
	assert.Equal(t, 600, c.MoistureMax)
	assert.Equal(t, 5, c.MaxTravel)
	assert.Equal(t, 3, c.SoakTime)
	assert.Equal(t, 2, c.SettleTicks)
	assert.Equal(t, 500, c.SensorSettle)
	assert.Equal(t, 60, c.DrainTicks)
	assert.Equal(t, 172800, c.CycleSleep)
	assert.Equal(t, StopWhenWetAndExhausted, c.TravelStop)
	assert.Zero(t, c.SampleMax)
}

func TestDefaultWiring(t *testing.T) {
	w := DefaultWiring()
	require.Len(t, w.Stations, StationCount)
	for i, st := range w.Stations {
		assert.Equal(t, i+1, st.ID)
		assert.Zero(t, st.TravelTime)
		assert.Equal(t, st.ID, w.StationForValve(st.Valve))
	}
	assert.Equal(t, 0, w.StationForValve(w.SharedLine))

	st, ok := w.Station(2)
	require.True(t, ok)
	assert.Equal(t, Channel(3), st.Channel)
	_, ok = w.Station(4)
	assert.False(t, ok)
}
