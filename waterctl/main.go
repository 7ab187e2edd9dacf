package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowater/pkg/board"
	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/monitor"
	"github.com/itohio/gowater/pkg/panel"
	"github.com/itohio/gowater/pkg/water"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Run the controller against simulated soil instead of a serial port")
		traceFlag  = flag.String("trace", "", "Append every received event to this file")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.gowater")

	window := application.NewWindow("Plant Watering Controller")
	window.Resize(fyne.NewSize(1100, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		tracePath:  *traceFlag,
		monitor:    monitor.New(cfg),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.panelWidget = panel.New(cfg)
	registerDisplay(state)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.panelWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeEventChain(state.chain)
	})
	window.ShowAndRun()
}

// eventChain tracks the components of the event chain for graceful shutdown.
type eventChain struct {
	device         board.Device
	trace          *os.File
	monitorRoutine chan struct{} // Closed when the monitor goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	tracePath   string
	device      board.Device
	monitor     *monitor.Monitor
	panelWidget *panel.PanelWidget
	window      fyne.Window
	connectBtn  *widget.Button
	stationBtns []*widget.Button
	statusLabel *widget.Label
	useMock     bool
	chain       *eventChain // Current event chain (nil if not connected)

	// Throttling for panel updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect, Settings and
// one valve indicator per station.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.statusLabel = widget.NewLabel("Disconnected")

	stations := container.NewHBox()
	for i, st := range state.cfg.Stations {
		btn := widget.NewButtonWithIcon(fmt.Sprintf("S%d", st.ID), theme.InfoIcon(), func() {
			handleStationInfo(state, i)
		})
		state.stationBtns = append(state.stationBtns, btn)
		stations.Add(btn)
	}

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		stations,
		state.statusLabel,
	)
}

// closeEventChain gracefully closes the event chain.
func closeEventChain(chain *eventChain) {
	if chain == nil {
		return
	}

	// Closing the device closes its events channel
	if chain.device != nil {
		chain.device.Close()
	}

	// The monitor goroutine exits once the channel drains
	if chain.monitorRoutine != nil {
		<-chain.monitorRoutine
	}

	if chain.trace != nil {
		if err := chain.trace.Close(); err != nil {
			log.Printf("Error closing trace file: %v", err)
		}
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeEventChain(state.chain)
		state.chain = nil
		state.device = nil
		state.statusLabel.SetText("Disconnected")
		if state.useMock {
			log.Printf("Stopped simulated controller")
		} else {
			log.Printf("Disconnected from serial port")
		}
		return
	}

	var device board.Device
	if state.useMock {
		device = board.NewMock(state.cfg)
		log.Printf("Using simulated controller (%s)", state.cfg.Controller.TravelStop)
	} else {
		device = board.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, state.cfg.Sim.EventBuffer)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated controller: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		state.statusLabel.SetText("Simulated")
	} else {
		state.statusLabel.SetText(state.cfg.Serial.Port)
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}

	// A new board starts a new clock
	state.monitor.Reset()
	state.monitor.ResetShutdown()

	events := device.Events()

	chain := &eventChain{
		device:         device,
		monitorRoutine: make(chan struct{}),
	}

	if state.tracePath != "" {
		f, err := os.OpenFile(state.tracePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to open trace file: %w", err), state.window)
		} else {
			chain.trace = f
			events = monitor.NewTraceWriter(f, state.cfg.Sim.EventBuffer)(events)
		}
	}

	go func() {
		defer close(chain.monitorRoutine)
		state.monitor.ProcessEvents(events)
	}()

	state.chain = chain
}

// registerDisplay forwards monitor snapshots to the panel at most ~30 times a
// second. Faults and sleeps are always shown.
func registerDisplay(state *appState) {
	const updateInterval = 33 * time.Millisecond
	state.monitor.OnUpdate(func(snap monitor.Snapshot) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval && !isMilestone(snap)
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()

		if tooSoon {
			return
		}

		UpdateWidgetOnMainThread(func() {
			state.panelWidget.UpdateData(snap)
			updateStationButtons(state, snap)
		})
	})
}

// isMilestone reports whether snap must reach the display even when updates
// are throttled.
func isMilestone(snap monitor.Snapshot) bool {
	return snap.Faulted || snap.State == water.Sleeping
}
