package board

import (
	"strings"
	"testing"

	"github.com/itohio/gowater/pkg/water"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    water.Event
		wantErr bool
	}{
		{
			name: "valid line - state",
			line: "0,state,1,1",
			want: water.Event{Tick: 0, Kind: water.KindState, Station: 1, Value: int(water.Sensing)},
		},
		{
			name: "valid line - sample",
			line: "64,sample,3,1023",
			want: water.Event{Tick: 64, Kind: water.KindSample, Station: 3, Value: 1023},
		},
		{
			name: "valid line - shared line",
			line: "70,line,0,1",
			want: water.Event{Tick: 70, Kind: water.KindLine, Station: 0, Value: 1},
		},
		{
			name: "valid line - sleep",
			line: "90,sleep,0,172800",
			want: water.Event{Tick: 90, Kind: water.KindSleep, Value: 172800},
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "0,state,1",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "0,state,1,1,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric tick",
			line:    "abc,state,1,1",
			wantErr: true,
		},
		{
			name:    "invalid - negative tick",
			line:    "-1,state,1,1",
			wantErr: true,
		},
		{
			name:    "invalid - unknown kind",
			line:    "0,flood,1,1",
			wantErr: true,
		},
		{
			name:    "invalid - station out of range",
			line:    "0,valve,4,1",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric value",
			line:    "0,sample,1,wet",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_TraceRoundTrip(t *testing.T) {
	events := []water.Event{
		{Tick: 0, Kind: water.KindState, Station: 2, Value: int(water.WetPath)},
		{Tick: 12, Kind: water.KindDose, Station: 2, Value: 6},
		{Tick: 13, Kind: water.KindFault, Station: 1, Value: 5},
		{Tick: 14, Kind: water.KindAlarm, Value: 1},
	}
	for _, e := range events {
		line := strings.TrimSpace(string(e.AppendTrace(nil)))
		got, err := parseLine(line)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestNewSerial(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 9600, 10)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 9600, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}

func TestSerial_ConnectAfterClose(t *testing.T) {
	dev := NewSerial("test", 0, 0)
	dev.connected = true // as if Connect had opened the port
	require.NoError(t, dev.Close())

	assert.ErrorIs(t, dev.Connect(), ErrClosed)
	assert.False(t, dev.IsConnected())
}

func TestNewSerial_Defaults(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 0)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_ReadEventsSkipsGarbage(t *testing.T) {
	dev := NewSerial("test", 0, 0)

	input := "gowater\n" +
		"0,state,1,1\n" +
		"\n" +
		"0,sensor,1,1\n" +
		"garbage,line\n" +
		"0,sample,1,150\n"
	dev.readEvents(strings.NewReader(input))

	var got []water.Event
	for e := range dev.Events() {
		got = append(got, e)
	}
	require.Len(t, got, 3)
	assert.Equal(t, water.KindState, got[0].Kind)
	assert.Equal(t, water.KindSensor, got[1].Kind)
	assert.Equal(t, 150, got[2].Value)
}

func TestSerial_ReadEventsDropsWhenFull(t *testing.T) {
	dev := NewSerial("test", 0, 2)

	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.Write(water.Event{Tick: int64(i), Kind: water.KindSample, Station: 1, Value: i}.AppendTrace(nil))
	}
	dev.readEvents(strings.NewReader(b.String()))

	var got []int
	for e := range dev.Events() {
		got = append(got, e.Value)
	}
	assert.Equal(t, []int{0, 1}, got)
}
