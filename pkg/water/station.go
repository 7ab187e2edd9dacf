package water

// StationCount is the number of stations the controller drives.
const StationCount = 3

// Pin identifies a digital output (valve, sensor supply or indicator).
type Pin uint8

// Channel identifies an analog converter input.
type Channel uint8

// Level is the state of a digital output.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Station describes one plant station and the hardware that belongs to it.
type Station struct {
	ID           int
	SensePin     Pin     // Sensor supply, doubles as the fault indicator
	Channel      Channel // Converter input the probe is wired to
	AnalogEnable uint16  // Input-enable bits for the converter pin
	Valve        Pin     // Station solenoid

	// TravelTime is the measured valve-open to sensor-wet time in ticks.
	// It is set by calibration and only lives for the current power cycle.
	TravelTime int
}

// Wiring is the fixed hardware layout of the controller.
type Wiring struct {
	Stations   []Station
	SharedLine Pin   // Upstream valve common to all stations
	Indicators []Pin // Outputs toggled by the alarm handler
}

// DefaultWiring returns the three-station board layout: sensor supplies on
// outputs 0, 2 and 4, converter inputs 1, 3 and 5, solenoids on 8, 9 and 10
// and the shared line on 11.
func DefaultWiring() Wiring {
	stations := []Station{
		{ID: 1, SensePin: 0, Channel: 1, AnalogEnable: 1 << 1, Valve: 8},
		{ID: 2, SensePin: 2, Channel: 3, AnalogEnable: 1 << 3, Valve: 9},
		{ID: 3, SensePin: 4, Channel: 5, AnalogEnable: 1 << 5, Valve: 10},
	}
	return Wiring{
		Stations:   stations,
		SharedLine: 11,
		Indicators: []Pin{0, 2, 4},
	}
}

// Station returns the station with the given id.
func (w Wiring) Station(id int) (Station, bool) {
	for _, s := range w.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// StationForValve returns the id of the station driven by pin, or 0.
func (w Wiring) StationForValve(pin Pin) int {
	for _, s := range w.Stations {
		if s.Valve == pin {
			return s.ID
		}
	}
	return 0
}
