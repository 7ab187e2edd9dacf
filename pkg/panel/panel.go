package panel

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/monitor"
)

// PanelWidget is a custom Fyne widget that shows every station side by side:
// valve and probe indicators, the moisture history with both thresholds and
// the latest calibration and dose.
type PanelWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	snap    monitor.Snapshot
	history [][]monitor.Reading // Display buffers, reused for downsampling

	maxDisplayPoints int
}

// New creates a new PanelWidget instance.
func New(cfg *config.Config) *PanelWidget {
	p := &PanelWidget{
		cfg:              cfg,
		maxDisplayPoints: 300,
	}
	for _, st := range cfg.Stations {
		p.snap.Stations = append(p.snap.Stations, monitor.StationView{ID: st.ID})
		p.history = append(p.history, make([]monitor.Reading, 0, p.maxDisplayPoints))
	}
	p.ExtendBaseWidget(p)
	p.Refresh()
	return p
}

// UpdateData replaces the displayed state. Call it on the Fyne thread.
func (p *PanelWidget) UpdateData(snap monitor.Snapshot) {
	p.mu.Lock()
	for len(p.history) < len(snap.Stations) {
		p.history = append(p.history, nil)
	}
	for i, st := range snap.Stations {
		p.history[i] = monitor.Downsample(p.history[i], st.History, p.maxDisplayPoints)
	}
	p.snap = snap
	p.mu.Unlock()

	p.Refresh()
}

// CreateRenderer creates the widget renderer.
func (p *PanelWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &panelRenderer{
		panel:   p,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
