package main

import (
	"machine"
	"time"
)

const (
	// Timing
	TICK     = time.Second      // One controller tick
	SUB_TICK = time.Millisecond // One probe settling sub-tick

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // Probe thresholds are in 10-bit counts

	// Serial configuration
	// Trace lines look like "123456,valve,2,1\n", at most ~24 bytes. The
	// controller emits a handful per tick, so any standard rate is enough;
	// 115200 matches the host default.
	UART_BAUD_RATE = 115200
)

// outputPins maps the controller output tokens to board pins. Tokens 0, 2
// and 4 power the probes, 8..10 are the station valves and 11 is the shared
// line. Unused tokens are NoPin.
var outputPins = [...]machine.Pin{
	0:  machine.D3,
	1:  machine.NoPin,
	2:  machine.D4,
	3:  machine.NoPin,
	4:  machine.D5,
	5:  machine.NoPin,
	6:  machine.NoPin,
	7:  machine.NoPin,
	8:  machine.D7,
	9:  machine.D8,
	10: machine.D9,
	11: machine.D10,
}

// analogPins maps converter channels 1, 3 and 5 to the probe inputs.
var analogPins = [...]machine.Pin{
	0: machine.NoPin,
	1: machine.A0,
	2: machine.NoPin,
	3: machine.A1,
	4: machine.NoPin,
	5: machine.A2,
}
