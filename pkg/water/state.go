package water

import "fmt"

// State is the sequencer state.
type State uint8

const (
	Idle State = iota
	Sensing
	DryPath
	WetPath
	MaintenanceDose
	Sleeping
	Fault
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Sensing:
		return "Sensing"
	case DryPath:
		return "DryPath"
	case WetPath:
		return "WetPath"
	case MaintenanceDose:
		return "MaintenanceDose"
	case Sleeping:
		return "Sleeping"
	case Fault:
		return "Fault"
	default:
		return fmt.Sprintf("UnknownState%d", uint8(s))
	}
}
