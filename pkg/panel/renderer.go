package panel

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gowater/pkg/monitor"
	"github.com/itohio/gowater/pkg/water"
)

// fullScale is the largest 10-bit converter reading.
const fullScale = 1023

var (
	colorGrid   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorText   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorDim    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorTrace  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorDry    = color.RGBA{R: 200, G: 120, B: 40, A: 255}
	colorWet    = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colorOpen   = color.RGBA{R: 40, G: 200, B: 80, A: 255}
	colorClosed = color.RGBA{R: 70, G: 70, B: 70, A: 255}
	colorFault  = color.RGBA{R: 230, G: 40, B: 40, A: 255}
)

// panelRenderer renders the panel widget.
type panelRenderer struct {
	panel *PanelWidget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *panelRenderer) MinSize() fyne.Size {
	return fyne.NewSize(600, 320)
}

// Layout arranges the widget components.
func (r *panelRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.panel.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current snapshot.
func (r *panelRenderer) Refresh() {
	r.panel.mu.RLock()
	snap := r.panel.snap
	history := r.panel.history
	lo := r.panel.cfg.Controller.MoistureMin
	hi := r.panel.cfg.Controller.MoistureMax
	r.panel.mu.RUnlock()

	size := r.panel.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	const (
		margin = float32(10)
		header = float32(36)
	)
	r.drawHeader(margin, snap)

	n := len(snap.Stations)
	if n == 0 {
		return
	}
	colWidth := (size.Width - margin*float32(n+1)) / float32(n)
	colHeight := size.Height - header - margin*2
	for i, st := range snap.Stations {
		x := margin + float32(i)*(colWidth+margin)
		var h []monitor.Reading
		if i < len(history) {
			h = history[i]
		}
		r.drawStation(x, header+margin, colWidth, colHeight, st, h, snap.Current == st.ID, lo, hi)
	}
}

func (r *panelRenderer) drawHeader(x float32, snap monitor.Snapshot) {
	lineColor := colorClosed
	if snap.Line {
		lineColor = colorOpen
	}
	r.indicator(x, 10, lineColor)
	r.text(x+20, 8, "line", 12, colorText)

	alarmColor := colorClosed
	if snap.Alarm {
		alarmColor = colorFault
	}
	r.indicator(x+70, 10, alarmColor)
	r.text(x+90, 8, "alarm", 12, colorText)

	status := fmt.Sprintf("%s  t=%s  cycles=%d", stateLabel(snap.State, snap.Current), formatTicks(snap.Tick), snap.Cycles)
	if snap.Faulted {
		status += fmt.Sprintf("  FAULT station %d (%d)", snap.FaultStation, snap.FaultValue)
	}
	if snap.Violations > 0 {
		status += fmt.Sprintf("  exclusion violations=%d", snap.Violations)
	}
	r.text(x+150, 8, status, 12, colorText)
}

func (r *panelRenderer) drawStation(x, y, w, h float32, st monitor.StationView, history []monitor.Reading, active bool, lo, hi int) {
	frame := canvas.NewRectangle(color.Transparent)
	frame.StrokeWidth = 1
	frame.StrokeColor = colorGrid
	if active {
		frame.StrokeColor = colorText
	}
	if st.Faulted {
		frame.StrokeColor = colorFault
	}
	frame.Move(fyne.NewPos(x, y))
	frame.Resize(fyne.NewSize(w, h))
	r.objects = append(r.objects, frame)

	r.text(x+8, y+6, fmt.Sprintf("Station %d  %s", st.ID, st.State), 13, colorText)

	valveColor := colorClosed
	if st.Valve {
		valveColor = colorOpen
	}
	r.indicator(x+8, y+30, valveColor)
	r.text(x+26, y+28, "valve", 11, colorDim)

	sensorColor := colorClosed
	if st.Sensor {
		sensorColor = colorTrace
	}
	r.indicator(x+80, y+30, sensorColor)
	r.text(x+98, y+28, "probe", 11, colorDim)

	const footer = float32(24)
	plotX := x + 8
	plotY := y + 52
	plotW := w - 16
	plotH := h - 52 - footer
	if plotW <= 0 || plotH <= 0 {
		return
	}

	r.hline(plotX, plotW, scaleY(0, plotY, plotH), colorGrid)
	r.hline(plotX, plotW, scaleY(fullScale, plotY, plotH), colorGrid)
	r.hline(plotX, plotW, scaleY(lo, plotY, plotH), colorDry)
	r.hline(plotX, plotW, scaleY(hi, plotY, plotH), colorWet)

	if len(history) > 1 {
		t0 := history[0].Tick
		t1 := history[len(history)-1].Tick
		prev := fyne.NewPos(scaleX(history[0].Tick, t0, t1, plotX, plotW), scaleY(history[0].Value, plotY, plotH))
		for _, rd := range history[1:] {
			pos := fyne.NewPos(scaleX(rd.Tick, t0, t1, plotX, plotW), scaleY(rd.Value, plotY, plotH))
			line := canvas.NewLine(colorTrace)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
			prev = pos
		}
	}

	summary := fmt.Sprintf("dryness %d  travel %d  dose %d (%d)", st.Dryness, st.TravelTime, st.LastDose, st.Doses)
	r.text(x+8, y+h-footer+4, summary, 11, colorDim)
}

func (r *panelRenderer) indicator(x, y float32, c color.Color) {
	circle := canvas.NewCircle(c)
	circle.Move(fyne.NewPos(x, y))
	circle.Resize(fyne.NewSize(12, 12))
	r.objects = append(r.objects, circle)
}

func (r *panelRenderer) text(x, y float32, s string, size float32, c color.Color) {
	t := canvas.NewText(s, c)
	t.TextSize = size
	t.Move(fyne.NewPos(x, y))
	r.objects = append(r.objects, t)
}

func (r *panelRenderer) hline(x, w, y float32, c color.Color) {
	line := canvas.NewLine(c)
	line.Position1 = fyne.NewPos(x, y)
	line.Position2 = fyne.NewPos(x+w, y)
	line.StrokeWidth = 1
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *panelRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *panelRenderer) Destroy() {}

// scaleY maps a converter reading onto the plot, higher readings up.
func scaleY(v int, y, h float32) float32 {
	if v < 0 {
		v = 0
	} else if v > fullScale {
		v = fullScale
	}
	return y + h - float32(v)/fullScale*h
}

// scaleX maps tick onto [x, x+w] for a history spanning t0..t1.
func scaleX(tick, t0, t1 int64, x, w float32) float32 {
	if t1 <= t0 {
		return x + w
	}
	return x + float32(tick-t0)/float32(t1-t0)*w
}

// formatTicks renders a tick count as days, hours, minutes and seconds at
// one tick per second.
func formatTicks(t int64) string {
	d := t / 86400
	h := t % 86400 / 3600
	m := t % 3600 / 60
	s := t % 60
	if d > 0 {
		return fmt.Sprintf("%dd%02dh%02dm%02ds", d, h, m, s)
	}
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func stateLabel(st water.State, current int) string {
	if current == 0 {
		return st.String()
	}
	return fmt.Sprintf("%s @%d", st, current)
}
