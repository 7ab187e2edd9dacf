package monitor

import (
	"sync"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/water"
)

// Reading is one probe conversion on the controller clock.
type Reading struct {
	Tick  int64
	Value int
}

// StationView is what the monitor knows about one station.
type StationView struct {
	ID         int
	State      water.State // Last state the station was in
	Sensor     bool        // Probe powered
	Valve      bool
	Dryness    int // Last conversion
	TravelTime int
	LastDose   int
	Doses      int
	Faulted    bool
	History    []Reading // FIFO, oldest first
}

// Snapshot is a consistent copy of the monitor state.
type Snapshot struct {
	Tick     int64
	State    water.State
	Current  int // Station being processed, 0 when none
	Line     bool
	Alarm    bool
	Faulted  bool
	Cycles   int // Completed cycles (sleeps entered)
	Events   int
	Stations []StationView

	FaultStation int
	FaultValue   int

	// Violations counts events that broke valve exclusion: a second station
	// valve opening, or the shared line open without exactly one station
	// valve.
	Violations int
}

// Monitor folds controller events into a Snapshot.
type Monitor struct {
	historyLimit int

	mu       sync.RWMutex
	snap     Snapshot
	index    map[int]int
	shutdown bool // Set when the input channel closes, prevents further callbacks

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// New creates a Monitor for the stations in cfg.
func New(cfg *config.Config) *Monitor {
	m := &Monitor{
		historyLimit: cfg.Sim.HistoryLimit,
		index:        make(map[int]int),
	}
	for i, st := range cfg.Stations {
		m.index[st.ID] = i
		m.snap.Stations = append(m.snap.Stations, StationView{ID: st.ID})
	}
	return m
}

// ProcessEvents folds events from input until it closes. When the channel
// closes no further callbacks are sent.
func (m *Monitor) ProcessEvents(input <-chan water.Event) {
	for e := range input {
		m.Observe(e)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// Observe folds a single event and notifies callbacks. It can be registered
// directly with water.Sequencer.OnEvent.
func (m *Monitor) Observe(e water.Event) {
	m.mu.Lock()
	m.apply(e)
	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

func (m *Monitor) apply(e water.Event) {
	s := &m.snap
	s.Events++
	if e.Tick > s.Tick {
		s.Tick = e.Tick
	}

	var st *StationView
	if i, ok := m.index[e.Station]; ok {
		st = &s.Stations[i]
	}

	switch e.Kind {
	case water.KindState:
		state := water.State(e.Value)
		s.State = state
		s.Current = e.Station
		if st != nil {
			st.State = state
		}
		if state == water.Fault {
			s.Faulted = true
			if st != nil {
				st.Faulted = true
			}
		}
	case water.KindSensor:
		if st != nil {
			st.Sensor = e.Value != 0
		}
	case water.KindSample:
		if st != nil {
			st.Dryness = e.Value
			st.History = append(st.History, Reading{Tick: e.Tick, Value: e.Value})
			if m.historyLimit > 0 && len(st.History) > m.historyLimit {
				st.History = st.History[len(st.History)-m.historyLimit:]
			}
		}
	case water.KindValve:
		if st == nil {
			return
		}
		open := e.Value != 0
		if open && !st.Valve && m.openValves() > 0 {
			s.Violations++
		}
		if !open && s.Line && m.openValves() == 1 {
			// Closing the only valve while the line still flows
			s.Violations++
		}
		st.Valve = open
	case water.KindLine:
		open := e.Value != 0
		if open && m.openValves() != 1 {
			s.Violations++
		}
		s.Line = open
	case water.KindTravel:
		if st != nil {
			st.TravelTime = e.Value
		}
	case water.KindDose:
		if st != nil {
			st.LastDose = e.Value
			st.Doses++
		}
	case water.KindSleep:
		s.Cycles++
	case water.KindAlarm:
		s.Alarm = e.Value != 0
	case water.KindFault:
		s.Faulted = true
		s.FaultStation = e.Station
		s.FaultValue = e.Value
		if st != nil {
			st.Faulted = true
		}
	}
}

func (m *Monitor) openValves() int {
	n := 0
	for _, st := range m.snap.Stations {
		if st.Valve {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copySnapshot()
}

func (m *Monitor) copySnapshot() Snapshot {
	out := m.snap
	out.Stations = make([]StationView, len(m.snap.Stations))
	for i, st := range m.snap.Stations {
		st.History = append([]Reading(nil), st.History...)
		out.Stations[i] = st
	}
	return out
}

// OnUpdate registers a callback invoked after every folded event. The
// callback should copy what it needs and return quickly.
func (m *Monitor) OnUpdate(callback func(Snapshot)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again before a new event chain is started.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// Reset clears all folded state but keeps callbacks.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	stations := make([]StationView, len(m.snap.Stations))
	for i, st := range m.snap.Stations {
		stations[i] = StationView{ID: st.ID}
	}
	m.snap = Snapshot{Stations: stations}
}

func (m *Monitor) notifyCallbacks() {
	m.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	snap := m.Snapshot()
	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}
