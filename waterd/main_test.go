package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/monitor"
	"github.com/itohio/gowater/pkg/sim"
	"github.com/itohio/gowater/pkg/water"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig(t *testing.T, stop water.TravelStop) string {
	t.Helper()
	cfg := config.Default()
	cfg.Controller.TravelStop = stop.String()
	cfg.Sim.Tick = 0
	cfg.Sim.SubTick = 0
	cfg.Sim.NoiseLevel = 0

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func TestRun_StationOnce(t *testing.T) {
	path := simConfig(t, water.StopWhenWetOrExhausted)
	assert.Equal(t, 0, run(path, true, false, 1, true))
}

func TestRun_CycleOnce(t *testing.T) {
	path := simConfig(t, water.StopWhenWetOrExhausted)
	assert.Equal(t, 0, run(path, true, true, 0, false))
}

// Single-station runs report a fault through the exit code without blinking
// the alarm.
func TestRun_FaultExitCode(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	path := simConfig(t, water.StopWhenWetAndExhausted)
	assert.Equal(t, 2, run(path, true, false, 1, true))
	assert.Contains(t, buf.String(), "Controller stopped in Fault (station 1)")
	assert.Contains(t, buf.String(), "Fault at station 1")
}

func TestRun_UnknownStation(t *testing.T) {
	path := simConfig(t, water.StopWhenWetOrExhausted)
	assert.Equal(t, 1, run(path, true, false, 9, true))
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("controller:\n  travel_stop: sometimes\n"), 0644))
	assert.Equal(t, 1, run(path, true, false, 0, false))
}

func TestStartEventChain_FeedsMonitor(t *testing.T) {
	cfg := config.Default()
	cfg.Controller.TravelStop = water.StopWhenWetOrExhausted.String()
	cfg.Sim.Tick = 0
	cfg.Sim.SubTick = 0

	w := cfg.Wiring()
	s := water.NewSequencer(sim.New(&cfg.Sim, w), cfg.Constants(), w)
	mon := monitor.New(cfg)

	done := startEventChain(s, mon, 4096, true)
	require.NoError(t, s.RunCycle(t.Context()))
	done()

	snap := mon.Snapshot()
	assert.Positive(t, snap.Events)
	assert.Zero(t, snap.Violations)
	assert.False(t, snap.Faulted)
	for _, st := range snap.Stations {
		assert.Positive(t, st.Doses, "station %d", st.ID)
		assert.False(t, st.Valve)
	}
}

func TestLogFaults_ReportsOnce(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	cb := logFaults()
	cb(monitor.Snapshot{})
	cb(monitor.Snapshot{Faulted: true, FaultStation: 2, FaultValue: 5})
	cb(monitor.Snapshot{Faulted: true, FaultStation: 2, FaultValue: 5})

	assert.Equal(t, 1, strings.Count(buf.String(), "Fault at station 2 (value 5)"))
}
