package sim

import (
	"github.com/chewxy/math32"
	"github.com/itohio/gowater/pkg/config"
)

// MaxReading is the largest converter count a probe can report.
const MaxReading = 1023

// soil is the simulated state of one station: how far water has travelled
// down the tubing and how wet the soil around the probe is.
type soil struct {
	travel   float32 // Ticks of flow needed before water reaches the probe
	fill     float32 // Ticks of flow currently held in the tubing
	moisture float32 // Converter counts
}

// step advances the soil by one tick. flowing is true while both the
// station valve and the shared line are open.
func (s *soil) step(cfg *config.SimConfig, flowing bool) {
	if flowing {
		if s.fill < s.travel {
			s.fill++
		}
	} else if s.fill > 0 {
		s.fill *= decay(1, cfg.DrainTau)
		if s.fill < 0.01 {
			s.fill = 0
		}
	}

	if flowing && s.fill >= s.travel {
		// Exponential approach to saturation
		s.moisture = cfg.Saturation + (s.moisture-cfg.Saturation)*decay(1, cfg.WetTau)
	} else {
		s.moisture = cfg.DryFloor + (s.moisture-cfg.DryFloor)*decay(1, cfg.DryTau)
	}
}

// dry advances the soil by n idle ticks at once.
func (s *soil) dry(cfg *config.SimConfig, n int) {
	s.moisture = cfg.DryFloor + (s.moisture-cfg.DryFloor)*decay(float32(n), cfg.DryTau)
	if s.fill > 0 {
		s.fill *= decay(float32(n), cfg.DrainTau)
		if s.fill < 0.01 {
			s.fill = 0
		}
	}
}

func (s *soil) reading(noise float32) int {
	v := math32.Round(s.moisture + noise)
	if v < 0 {
		return 0
	}
	if v > MaxReading {
		return MaxReading
	}
	return int(v)
}

func decay(dt, tau float32) float32 {
	if tau <= 0 {
		return 0
	}
	return math32.Exp(-dt / tau)
}
