package main

import (
	"testing"

	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowater/pkg/monitor"
	"github.com/itohio/gowater/pkg/water"
	"github.com/stretchr/testify/assert"
)

func TestStationImportance(t *testing.T) {
	tests := []struct {
		name string
		st   monitor.StationView
		want widget.Importance
	}{
		{"idle", monitor.StationView{}, widget.MediumImportance},
		{"watering", monitor.StationView{Valve: true}, widget.HighImportance},
		{"fault wins", monitor.StationView{Valve: true, Faulted: true}, widget.DangerImportance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stationImportance(tt.st))
		})
	}
}

func TestStationSummary(t *testing.T) {
	s := stationSummary(monitor.StationView{
		ID:         2,
		State:      water.DryPath,
		Valve:      true,
		Dryness:    312,
		TravelTime: 3,
		LastDose:   4,
		Doses:      7,
	})
	assert.Contains(t, s, "State: DryPath")
	assert.Contains(t, s, "Valve: on")
	assert.Contains(t, s, "Probe: off")
	assert.Contains(t, s, "Last reading: 312")
	assert.Contains(t, s, "Last dose: 4 (total 7)")
	assert.NotContains(t, s, "FAULTED")

	assert.Contains(t, stationSummary(monitor.StationView{Faulted: true}), "FAULTED")
}

func TestIsMilestone(t *testing.T) {
	assert.True(t, isMilestone(monitor.Snapshot{Faulted: true}))
	assert.True(t, isMilestone(monitor.Snapshot{State: water.Sleeping}))
	assert.False(t, isMilestone(monitor.Snapshot{State: water.DryPath}))
}

func TestParseFloat32(t *testing.T) {
	v, ok := parseFloat32("1.5")
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), v)

	_, ok = parseFloat32("wet")
	assert.False(t, ok)
}
