package board

import (
	"errors"

	"github.com/itohio/gowater/pkg/water"
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	// ErrClosed is returned by Connect on a device that was already closed.
	// Devices are single-use; create a new one to reconnect.
	ErrClosed = errors.New("device closed")
)

// Device defines the interface for controller boards (real or simulated).
type Device interface {
	Connect() error
	Close() error
	Events() <-chan water.Event
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
