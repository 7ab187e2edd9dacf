package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/itohio/gowater/pkg/water"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the USB console baud rate of the firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the events channel buffer.
	DefaultBufferSize = 256
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads the trace of a controller running the firmware. The link is
// one-way: the controller accepts no commands.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	events    chan water.Event
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool
}

// NewSerial creates a Serial device for the given port, baud rate and buffer size.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		events:   make(chan water.Event, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading the trace.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readEvents(port)

	return nil
}

// Close closes the connection and stops reading.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.closed = true

	return nil
}

// Events returns the channel of decoded trace events. It is closed once the
// reader stops.
func (d *Serial) Events() <-chan water.Event {
	return d.events
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readEvents reads trace lines from r until EOF or Close.
func (d *Serial) readEvents(r io.Reader) {
	defer close(d.events)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readEvents: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if d.ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		e, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case d.events <- e:
		case <-d.ctx.Done():
			return
		default:
			log.Printf("Events channel full, dropping %s event", e.Kind)
		}
	}

	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// parseLine parses one trace line.
// Format: tick,kind,station,value
// Example: 61,sample,2,1023
func parseLine(line string) (water.Event, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return water.Event{}, fmt.Errorf("invalid line format: expected 4 comma-separated values, got %d", len(parts))
	}

	tick, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return water.Event{}, fmt.Errorf("invalid tick: %w", err)
	}
	if tick < 0 {
		return water.Event{}, fmt.Errorf("negative tick: %d", tick)
	}

	kind, err := water.ParseKind(parts[1])
	if err != nil {
		return water.Event{}, err
	}

	station, err := strconv.Atoi(parts[2])
	if err != nil {
		return water.Event{}, fmt.Errorf("invalid station: %w", err)
	}
	if station < 0 || station > water.StationCount {
		return water.Event{}, fmt.Errorf("station out of range: %d", station)
	}

	value, err := strconv.Atoi(parts[3])
	if err != nil {
		return water.Event{}, fmt.Errorf("invalid value: %w", err)
	}

	return water.Event{Tick: tick, Kind: kind, Station: station, Value: value}, nil
}
