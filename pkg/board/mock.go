package board

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/sim"
	"github.com/itohio/gowater/pkg/water"
)

// Mock runs the controller against the simulated soil in-process, for
// development without hardware.
type Mock struct {
	cfg *config.Config

	platform  *sim.Platform
	sequencer *water.Sequencer

	events    chan water.Event
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
	closed    bool
	err       error
}

// NewMock creates a simulated board from a copy of cfg. Later edits to cfg
// do not reach the running controller. A nil cfg uses the defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg = cfg.Clone()
	}
	bufSize := cfg.Sim.EventBuffer
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	w := cfg.Wiring()
	p := sim.New(&cfg.Sim, w)
	s := water.NewSequencer(p, cfg.Constants(), w)

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mock{
		cfg:       cfg,
		platform:  p,
		sequencer: s,
		events:    make(chan water.Event, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.OnEvent(m.forward)
	return m
}

// Connect starts the controller.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.connected {
		return ErrAlreadyConnected
	}
	m.connected = true

	go m.run()

	return nil
}

// Close stops the controller and closes the events channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	<-m.done
	close(m.events)

	return nil
}

// Events returns the channel of controller events.
func (m *Mock) Events() <-chan water.Event {
	return m.events
}

// IsConnected returns whether the controller is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Platform returns the simulated board.
func (m *Mock) Platform() *sim.Platform {
	return m.platform
}

// Sequencer returns the controller state machine.
func (m *Mock) Sequencer() *water.Sequencer {
	return m.sequencer
}

// Err returns the error the controller stopped with, if it stopped on its
// own.
func (m *Mock) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Mock) run() {
	defer close(m.done)

	err := m.sequencer.Run(m.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Controller stopped: %v", err)
	}

	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// forward passes e to the events channel without blocking the controller.
func (m *Mock) forward(e water.Event) {
	select {
	case m.events <- e:
	case <-m.ctx.Done():
	default:
		log.Printf("Events channel full, dropping %s event", e.Kind)
	}
}
