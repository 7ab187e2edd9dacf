package water

import (
	"errors"
	"fmt"
)

var (
	// ErrTravelExceeded reports that water did not reach a probe within the
	// calibration step budget.
	ErrTravelExceeded = errors.New("travel bound exceeded")
	// ErrSampleRange reports a conversion outside the configured limits.
	ErrSampleRange = errors.New("sample out of range")
	// ErrFaulted is returned when a faulted controller is asked to water.
	ErrFaulted = errors.New("controller is faulted")
	// ErrUnknownStation reports a station id that is not in the wiring.
	ErrUnknownStation = errors.New("unknown station")
)

// FaultError is an unrecoverable mechanical or sensor fault. The controller
// stops watering and stays in the alarm state until reset.
type FaultError struct {
	Station int
	Value   int // Step count or offending sample
	Err     error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("station %d: %v (%d)", e.Station, e.Err, e.Value)
}

func (e *FaultError) Unwrap() error { return e.Err }

// IsFault reports whether err is a FaultError.
func IsFault(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe)
}
