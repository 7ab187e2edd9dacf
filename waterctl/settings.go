package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowater/pkg/board"
	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/water"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
// Controller and simulation changes take effect on the next connect.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createControllerTab(state),
		createTimingTab(state),
		createSimTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// applySettings validates a modified copy of the configuration and saves it.
// The live configuration is only replaced when the copy is valid. Running
// devices hold their own copy, so nothing changes for them until the next
// connect.
func applySettings(state *appState, modify func(c *config.Config)) bool {
	next := state.cfg.Clone()
	modify(next)
	if err := next.Validate(); err != nil {
		dialog.ShowError(fmt.Errorf("invalid settings: %w", err), state.window)
		return false
	}
	*state.cfg = *next
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := board.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected
			}

			changed := state.cfg.Serial.Port != selectedPort
			wasConnected := !state.useMock && state.device != nil && state.device.IsConnected()

			ok := applySettings(state, func(c *config.Config) {
				if selectedPort != "" {
					c.Serial.Port = selectedPort
				}
				if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
					changed = changed || c.Serial.BaudRate != baud
					c.Serial.BaudRate = baud
				}
			})

			// Reconnect to pick up the new port
			if ok && changed && wasConnected {
				handleConnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createControllerTab creates the thresholds and timings tab.
func createControllerTab(state *appState) *container.TabItem {
	c := state.cfg.Controller

	entries := []struct {
		label string
		value *int
	}{
		{"Moisture Min (counts)", &c.MoistureMin},
		{"Moisture Max (counts)", &c.MoistureMax},
		{"Max Travel (ticks)", &c.MaxTravel},
		{"Soak Time (ticks)", &c.SoakTime},
		{"Settle (ticks)", &c.SettleTicks},
		{"Sensor Settle (sub-ticks)", &c.SensorSettle},
		{"Drain (ticks)", &c.DrainTicks},
		{"Pressurize (ticks)", &c.PressurizeTicks},
		{"Alarm Period (ticks)", &c.AlarmPeriod},
		{"Cycle Sleep (ticks)", &c.CycleSleep},
		{"Sample Min (counts)", &c.SampleMin},
		{"Sample Max (0=disabled)", &c.SampleMax},
	}

	form := &widget.Form{}
	widgets := make([]*widget.Entry, len(entries))
	for i, e := range entries {
		w := widget.NewEntry()
		w.SetText(strconv.Itoa(*e.value))
		widgets[i] = w
		form.Append(e.label, w)
	}

	stopSelect := widget.NewSelect([]string{
		water.StopWhenWetAndExhausted.String(),
		water.StopWhenWetOrExhausted.String(),
	}, nil)
	stopSelect.SetSelected(c.TravelStop)
	form.Append("Travel Stop", stopSelect)

	form.OnSubmit = func() {
		applySettings(state, func(cfg *config.Config) {
			next := cfg.Controller
			values := []*int{
				&next.MoistureMin, &next.MoistureMax, &next.MaxTravel, &next.SoakTime,
				&next.SettleTicks, &next.SensorSettle, &next.DrainTicks, &next.PressurizeTicks,
				&next.AlarmPeriod, &next.CycleSleep, &next.SampleMin, &next.SampleMax,
			}
			for i, w := range widgets {
				if v, err := strconv.Atoi(w.Text); err == nil && v >= 0 {
					*values[i] = v
				}
			}
			if stopSelect.Selected != "" {
				next.TravelStop = stopSelect.Selected
			}
			cfg.Controller = next
		})
	}

	return container.NewTabItem("Controller", form)
}

// createTimingTab creates the tick length tab used by Linux deployments.
func createTimingTab(state *appState) *container.TabItem {
	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Timing.Tick.String())

	subTickEntry := widget.NewEntry()
	subTickEntry.SetText(state.cfg.Timing.SubTick.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Tick", Widget: tickEntry},
			{Text: "Sub-tick", Widget: subTickEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(c *config.Config) {
				if d, err := time.ParseDuration(tickEntry.Text); err == nil && d > 0 {
					c.Timing.Tick = d
				}
				if d, err := time.ParseDuration(subTickEntry.Text); err == nil && d > 0 {
					c.Timing.SubTick = d
				}
			})
		},
	}

	return container.NewTabItem("Timing", form)
}

// createSimTab creates the simulated soil configuration tab.
func createSimTab(state *appState) *container.TabItem {
	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Sim.Tick.String())

	maxDelayEntry := widget.NewEntry()
	maxDelayEntry.SetText(state.cfg.Sim.MaxDelay.String())

	dryFloorEntry := widget.NewEntry()
	dryFloorEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.DryFloor))

	saturationEntry := widget.NewEntry()
	saturationEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.Saturation))

	wetTauEntry := widget.NewEntry()
	wetTauEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Sim.WetTau))

	dryTauEntry := widget.NewEntry()
	dryTauEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Sim.DryTau))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Sim.NoiseLevel))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Tick", Widget: tickEntry},
			{Text: "Max Delay", Widget: maxDelayEntry},
			{Text: "Dry Floor (counts)", Widget: dryFloorEntry},
			{Text: "Saturation (counts)", Widget: saturationEntry},
			{Text: "Wetting Tau (ticks)", Widget: wetTauEntry},
			{Text: "Drying Tau (ticks)", Widget: dryTauEntry},
			{Text: "Noise Level (counts)", Widget: noiseEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(c *config.Config) {
				if d, err := time.ParseDuration(tickEntry.Text); err == nil && d >= 0 {
					c.Sim.Tick = d
				}
				if d, err := time.ParseDuration(maxDelayEntry.Text); err == nil && d >= 0 {
					c.Sim.MaxDelay = d
				}
				if v, ok := parseFloat32(dryFloorEntry.Text); ok {
					c.Sim.DryFloor = v
				}
				if v, ok := parseFloat32(saturationEntry.Text); ok {
					c.Sim.Saturation = v
				}
				if v, ok := parseFloat32(wetTauEntry.Text); ok && v > 0 {
					c.Sim.WetTau = v
				}
				if v, ok := parseFloat32(dryTauEntry.Text); ok && v > 0 {
					c.Sim.DryTau = v
				}
				if v, ok := parseFloat32(noiseEntry.Text); ok {
					c.Sim.NoiseLevel = v
				}
			})
		},
	}

	return container.NewTabItem("Simulation", form)
}

func parseFloat32(s string) (float32, bool) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}
