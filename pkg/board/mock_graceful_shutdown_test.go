package board

import (
	"testing"
	"time"

	"github.com/itohio/gowater/pkg/water"
	"github.com/stretchr/testify/assert"
)

// TestMock_GracefulShutdown tests that Mock closes the events channel
// when Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	mock := NewMock(fastConfig(water.StopWhenWetOrExhausted))
	err := mock.Connect()
	assert.NoError(t, err)

	events := mock.Events()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
			received++
			if received == 3 {
				// Got enough events, now close device
				mock.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Events channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3, "Should receive events before channel closes")
	assert.False(t, mock.IsConnected())

	_, ok := <-events
	assert.False(t, ok, "Channel should be closed")

	// Closing twice is harmless
	assert.NoError(t, mock.Close())
}
