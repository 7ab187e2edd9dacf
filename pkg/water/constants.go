package water

import "fmt"

// Build-time defaults of the firmware.
const (
	DefaultMoistureMin     = 200 // Below this a station is dry
	DefaultMoistureMax     = 600 // At or above this water has reached the probe
	DefaultMaxTravel       = 5   // Calibration advance steps before the alarm trips
	DefaultSoakTime        = 3   // Ticks added to the travel time for a full dose
	DefaultSettleTicks     = 2   // Ticks between closing the shared line and the station valve
	DefaultSensorSettle    = 500 // Sub-ticks between sensor power-up and conversion
	DefaultDrainTicks      = 60  // Ticks between calibration and the full dose
	DefaultPressurizeTicks = 1   // Ticks between opening a station valve and the shared line
	DefaultAlarmPeriod     = 1   // Ticks per alarm indicator phase
	DefaultCycleSleep      = 48 * 60 * 60
)

// TravelStop selects the calibration loop continuation condition.
type TravelStop uint8

const (
	// StopWhenWetAndExhausted keeps advancing while the probe is dry OR the
	// step budget is not spent, so the loop only ends once both hold. This is
	// the default.
	StopWhenWetAndExhausted TravelStop = iota
	// StopWhenWetOrExhausted keeps advancing while the probe is dry AND the
	// step budget is not spent.
	StopWhenWetOrExhausted
)

func (t TravelStop) String() string {
	switch t {
	case StopWhenWetAndExhausted:
		return "wet-and-exhausted"
	case StopWhenWetOrExhausted:
		return "wet-or-exhausted"
	default:
		return fmt.Sprintf("TravelStop(%d)", uint8(t))
	}
}

// ParseTravelStop parses the String form of a TravelStop.
func ParseTravelStop(s string) (TravelStop, error) {
	switch s {
	case "", "wet-and-exhausted":
		return StopWhenWetAndExhausted, nil
	case "wet-or-exhausted":
		return StopWhenWetOrExhausted, nil
	default:
		return 0, fmt.Errorf("unknown travel stop %q", s)
	}
}

// Constants holds the thresholds and timings of the sequencer. All durations
// are in ticks except SensorSettle which is in sub-ticks.
type Constants struct {
	MoistureMin     int
	MoistureMax     int
	MaxTravel       int
	SoakTime        int
	SettleTicks     int
	SensorSettle    int
	DrainTicks      int
	PressurizeTicks int
	AlarmPeriod     int
	CycleSleep      int
	TravelStop      TravelStop

	// SampleMin and SampleMax bound plausible conversions. Validation is
	// disabled while SampleMax is zero.
	SampleMin int
	SampleMax int
}

// DefaultConstants returns the firmware constants.
func DefaultConstants() Constants {
	return Constants{
		MoistureMin:     DefaultMoistureMin,
		MoistureMax:     DefaultMoistureMax,
		MaxTravel:       DefaultMaxTravel,
		SoakTime:        DefaultSoakTime,
		SettleTicks:     DefaultSettleTicks,
		SensorSettle:    DefaultSensorSettle,
		DrainTicks:      DefaultDrainTicks,
		PressurizeTicks: DefaultPressurizeTicks,
		AlarmPeriod:     DefaultAlarmPeriod,
		CycleSleep:      DefaultCycleSleep,
	}
}

// continueTravel reports whether calibration should advance another step.
func (c Constants) continueTravel(dryness, steps int) bool {
	notWet := dryness < c.MoistureMax
	inBudget := steps < c.MaxTravel
	if c.TravelStop == StopWhenWetOrExhausted {
		return notWet && inBudget
	}
	return notWet || inBudget
}

// checkSample validates a conversion when sample limits are configured.
func (c Constants) checkSample(v int) bool {
	if c.SampleMax == 0 {
		return true
	}
	return v >= c.SampleMin && v <= c.SampleMax
}
