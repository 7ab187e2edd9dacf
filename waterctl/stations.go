package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowater/pkg/monitor"
)

// handleStationInfo shows what the monitor knows about one station.
func handleStationInfo(state *appState, index int) {
	snap := state.monitor.Snapshot()
	if index >= len(snap.Stations) {
		return
	}
	dialog.ShowInformation(fmt.Sprintf("Station %d", snap.Stations[index].ID), stationSummary(snap.Stations[index]), state.window)
}

// stationSummary formats a station view for display.
func stationSummary(st monitor.StationView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", st.State)
	fmt.Fprintf(&b, "Valve: %s\n", onOff(st.Valve))
	fmt.Fprintf(&b, "Probe: %s\n", onOff(st.Sensor))
	fmt.Fprintf(&b, "Last reading: %d\n", st.Dryness)
	fmt.Fprintf(&b, "Travel time: %d\n", st.TravelTime)
	fmt.Fprintf(&b, "Last dose: %d (total %d)", st.LastDose, st.Doses)
	if st.Faulted {
		b.WriteString("\nFAULTED")
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// updateStationButtons reflects valve and fault state on the toolbar buttons.
// Must run on the Fyne thread.
func updateStationButtons(state *appState, snap monitor.Snapshot) {
	for i, btn := range state.stationBtns {
		if i >= len(snap.Stations) {
			break
		}
		updateStationButton(btn, snap.Stations[i])
	}
}

func updateStationButton(btn *widget.Button, st monitor.StationView) {
	importance := stationImportance(st)
	if btn.Importance == importance {
		return
	}
	btn.Importance = importance
	btn.Refresh()
}

func stationImportance(st monitor.StationView) widget.Importance {
	switch {
	case st.Faulted:
		return widget.DangerImportance
	case st.Valve:
		return widget.HighImportance
	default:
		return widget.MediumImportance
	}
}
