package water

import (
	"fmt"
	"strconv"
)

// Kind classifies an Event.
type Kind uint8

const (
	KindState  Kind = iota // Value is the new State
	KindSensor             // Value is 1 when the probe is powered
	KindSample             // Value is the conversion result
	KindValve              // Value is 1 when the station valve is open
	KindLine               // Value is 1 when the shared line is open
	KindTravel             // Value is the stored travel time
	KindDose               // Value is the dose duration in ticks
	KindSleep              // Value is the inter-cycle sleep in ticks
	KindAlarm              // Value is 1 when the indicators are lit
	KindFault              // Value is the offending step count or sample
)

var kindNames = [...]string{
	KindState:  "state",
	KindSensor: "sensor",
	KindSample: "sample",
	KindValve:  "valve",
	KindLine:   "line",
	KindTravel: "travel",
	KindDose:   "dose",
	KindSleep:  "sleep",
	KindAlarm:  "alarm",
	KindFault:  "fault",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind%d", uint8(k))
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is a progress notification from the sequencer. Tick is the virtual
// clock: the sum of all ticks the controller has waited since start.
type Event struct {
	Tick    int64
	Kind    Kind
	Station int // 0 when the event is not tied to a station
	Value   int
}

// AppendTrace appends the one-line trace form of e to dst:
//
//	tick,kind,station,value\n
func (e Event) AppendTrace(dst []byte) []byte {
	dst = strconv.AppendInt(dst, e.Tick, 10)
	dst = append(dst, ',')
	dst = append(dst, e.Kind.String()...)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(e.Station), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(e.Value), 10)
	return append(dst, '\n')
}

func (e Event) String() string {
	switch e.Kind {
	case KindState:
		return fmt.Sprintf("t=%d station %d -> %s", e.Tick, e.Station, State(e.Value))
	default:
		return fmt.Sprintf("t=%d station %d %s=%d", e.Tick, e.Station, e.Kind, e.Value)
	}
}

func levelValue(l Level) int {
	if l {
		return 1
	}
	return 0
}
