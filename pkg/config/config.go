package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/gowater/pkg/water"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	Controller ControllerConfig `yaml:"controller"`
	Stations   []StationConfig  `yaml:"stations"`
	SharedLine uint8            `yaml:"shared_line"`
	Indicators []uint8          `yaml:"indicators"`
	Timing     TimingConfig     `yaml:"timing"`
	Sim        SimConfig        `yaml:"sim"`
	RPi        RPiConfig        `yaml:"rpi"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ControllerConfig contains the sequencer thresholds and timings in ticks.
type ControllerConfig struct {
	MoistureMin     int    `yaml:"moisture_min"`
	MoistureMax     int    `yaml:"moisture_max"`
	MaxTravel       int    `yaml:"max_travel"`
	SoakTime        int    `yaml:"soak_time"`
	SettleTicks     int    `yaml:"settle_ticks"`
	SensorSettle    int    `yaml:"sensor_settle"` // Sub-ticks
	DrainTicks      int    `yaml:"drain_ticks"`
	PressurizeTicks int    `yaml:"pressurize_ticks"`
	AlarmPeriod     int    `yaml:"alarm_period"`
	CycleSleep      int    `yaml:"cycle_sleep"`
	TravelStop      string `yaml:"travel_stop"` // "wet-and-exhausted" (default) or "wet-or-exhausted"
	SampleMin       int    `yaml:"sample_min"`
	SampleMax       int    `yaml:"sample_max"` // 0 disables sample validation
}

// StationConfig contains the hardware assignment of one station.
type StationConfig struct {
	ID           int    `yaml:"id"`
	SensePin     uint8  `yaml:"sense_pin"`
	Channel      uint8  `yaml:"channel"`
	AnalogEnable uint16 `yaml:"analog_enable"`
	Valve        uint8  `yaml:"valve"`
}

// TimingConfig maps ticks to wall-clock time for host platforms.
type TimingConfig struct {
	Tick    time.Duration `yaml:"tick"`
	SubTick time.Duration `yaml:"sub_tick"`
}

// SimConfig contains simulated soil parameters. Moisture values are
// converter counts (10-bit).
type SimConfig struct {
	Tick         time.Duration `yaml:"tick"`          // Wall-clock time per simulated tick (0 = as fast as possible)
	SubTick      time.Duration `yaml:"sub_tick"`      // Wall-clock time per simulated sub-tick
	MaxDelay     time.Duration `yaml:"max_delay"`     // Upper bound on the wall-clock time of one delay
	Initial      []int         `yaml:"initial"`       // Initial moisture per station
	TravelTicks  []int         `yaml:"travel_ticks"`  // Ticks of flow before water reaches each probe
	DryFloor     float32       `yaml:"dry_floor"`     // Moisture of fully dried soil
	Saturation   float32       `yaml:"saturation"`    // Moisture of soaked soil
	WetTau       float32       `yaml:"wet_tau"`       // Ticks
	DryTau       float32       `yaml:"dry_tau"`       // Ticks
	DrainTau     float32       `yaml:"drain_tau"`     // Ticks for the tubing to empty
	NoiseLevel   float32       `yaml:"noise_level"`   // Counts
	EventBuffer  int           `yaml:"event_buffer"`  // Size of the mock device event channel
	HistoryLimit int           `yaml:"history_limit"` // Samples kept per station by the monitor
}

// RPiConfig contains the Linux controller hardware assignment.
type RPiConfig struct {
	Outputs map[int]string `yaml:"outputs"` // Output token -> GPIO name
	SPIPort string         `yaml:"spi_port"`
	SPIHz   int64          `yaml:"spi_hz"`
}

// Default returns a default configuration equal to the build-time
// constants of the firmware.
func Default() *Config {
	c := water.DefaultConstants()
	w := water.DefaultWiring()

	stations := make([]StationConfig, 0, len(w.Stations))
	for _, st := range w.Stations {
		stations = append(stations, StationConfig{
			ID:           st.ID,
			SensePin:     uint8(st.SensePin),
			Channel:      uint8(st.Channel),
			AnalogEnable: st.AnalogEnable,
			Valve:        uint8(st.Valve),
		})
	}
	indicators := make([]uint8, 0, len(w.Indicators))
	for _, p := range w.Indicators {
		indicators = append(indicators, uint8(p))
	}

	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Controller: ControllerConfig{
			MoistureMin:     c.MoistureMin,
			MoistureMax:     c.MoistureMax,
			MaxTravel:       c.MaxTravel,
			SoakTime:        c.SoakTime,
			SettleTicks:     c.SettleTicks,
			SensorSettle:    c.SensorSettle,
			DrainTicks:      c.DrainTicks,
			PressurizeTicks: c.PressurizeTicks,
			AlarmPeriod:     c.AlarmPeriod,
			CycleSleep:      c.CycleSleep,
			TravelStop:      c.TravelStop.String(),
		},
		Stations:   stations,
		SharedLine: uint8(w.SharedLine),
		Indicators: indicators,
		Timing: TimingConfig{
			Tick:    time.Second,
			SubTick: time.Millisecond,
		},
		Sim: SimConfig{
			Tick:         50 * time.Millisecond,
			SubTick:      0,
			MaxDelay:     5 * time.Second,
			Initial:      []int{150, 400, 180},
			TravelTicks:  []int{1, 2, 2},
			DryFloor:     80,
			Saturation:   850,
			WetTau:       1.5,
			DryTau:       20000,
			DrainTau:     4,
			NoiseLevel:   2,
			EventBuffer:  256,
			HistoryLimit: 500,
		},
		RPi: RPiConfig{
			Outputs: map[int]string{
				0:  "GPIO5",
				2:  "GPIO6",
				4:  "GPIO13",
				8:  "GPIO17",
				9:  "GPIO27",
				10: "GPIO22",
				11: "GPIO23",
			},
			SPIPort: "",
			SPIHz:   1000000,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Derived from the loaded stations, and maps merge instead of replacing.
	cfg.Indicators = nil
	cfg.RPi.Outputs = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Clone returns a deep copy of c. A running controller keeps its own copy so
// edits to the live configuration never reach it.
func (c *Config) Clone() *Config {
	out := *c
	out.Stations = append([]StationConfig(nil), c.Stations...)
	out.Indicators = append([]uint8(nil), c.Indicators...)
	out.Sim.Initial = append([]int(nil), c.Sim.Initial...)
	out.Sim.TravelTicks = append([]int(nil), c.Sim.TravelTicks...)
	if c.RPi.Outputs != nil {
		out.RPi.Outputs = make(map[int]string, len(c.RPi.Outputs))
		for k, v := range c.RPi.Outputs {
			out.RPi.Outputs[k] = v
		}
	}
	return &out
}

// Validate checks the configuration for values the controller cannot run
// with.
func (c *Config) Validate() error {
	if len(c.Stations) != water.StationCount {
		return fmt.Errorf("expected %d stations, got %d", water.StationCount, len(c.Stations))
	}
	seen := make(map[int]bool)
	for _, st := range c.Stations {
		if st.ID < 1 || st.ID > water.StationCount {
			return fmt.Errorf("station id %d out of range 1..%d", st.ID, water.StationCount)
		}
		if seen[st.ID] {
			return fmt.Errorf("duplicate station id %d", st.ID)
		}
		seen[st.ID] = true
		if st.Valve == c.SharedLine {
			return fmt.Errorf("station %d valve shares pin %d with the shared line", st.ID, st.Valve)
		}
	}
	if c.Controller.MoistureMin >= c.Controller.MoistureMax {
		return fmt.Errorf("moisture_min (%d) must be below moisture_max (%d)", c.Controller.MoistureMin, c.Controller.MoistureMax)
	}
	if _, err := water.ParseTravelStop(c.Controller.TravelStop); err != nil {
		return err
	}
	if c.Controller.SampleMax != 0 && c.Controller.SampleMin > c.Controller.SampleMax {
		return fmt.Errorf("sample_min (%d) exceeds sample_max (%d)", c.Controller.SampleMin, c.Controller.SampleMax)
	}
	return nil
}

// Constants returns the sequencer constants.
func (c *Config) Constants() water.Constants {
	stop, _ := water.ParseTravelStop(c.Controller.TravelStop)
	return water.Constants{
		MoistureMin:     c.Controller.MoistureMin,
		MoistureMax:     c.Controller.MoistureMax,
		MaxTravel:       c.Controller.MaxTravel,
		SoakTime:        c.Controller.SoakTime,
		SettleTicks:     c.Controller.SettleTicks,
		SensorSettle:    c.Controller.SensorSettle,
		DrainTicks:      c.Controller.DrainTicks,
		PressurizeTicks: c.Controller.PressurizeTicks,
		AlarmPeriod:     c.Controller.AlarmPeriod,
		CycleSleep:      c.Controller.CycleSleep,
		TravelStop:      stop,
		SampleMin:       c.Controller.SampleMin,
		SampleMax:       c.Controller.SampleMax,
	}
}

// Wiring returns the hardware layout.
func (c *Config) Wiring() water.Wiring {
	w := water.Wiring{SharedLine: water.Pin(c.SharedLine)}
	for _, st := range c.Stations {
		w.Stations = append(w.Stations, water.Station{
			ID:           st.ID,
			SensePin:     water.Pin(st.SensePin),
			Channel:      water.Channel(st.Channel),
			AnalogEnable: st.AnalogEnable,
			Valve:        water.Pin(st.Valve),
		})
	}
	for _, p := range c.Indicators {
		w.Indicators = append(w.Indicators, water.Pin(p))
	}
	return w
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Controller.MoistureMin == 0 {
		c.Controller.MoistureMin = def.Controller.MoistureMin
	}
	if c.Controller.MoistureMax == 0 {
		c.Controller.MoistureMax = def.Controller.MoistureMax
	}
	if c.Controller.MaxTravel == 0 {
		c.Controller.MaxTravel = def.Controller.MaxTravel
	}
	if c.Controller.SensorSettle == 0 {
		c.Controller.SensorSettle = def.Controller.SensorSettle
	}
	if c.Controller.AlarmPeriod == 0 {
		c.Controller.AlarmPeriod = def.Controller.AlarmPeriod
	}
	if c.Controller.CycleSleep == 0 {
		c.Controller.CycleSleep = def.Controller.CycleSleep
	}
	if c.Controller.TravelStop == "" {
		c.Controller.TravelStop = def.Controller.TravelStop
	}

	if len(c.Stations) == 0 {
		c.Stations = def.Stations
	}
	if len(c.Indicators) == 0 {
		for _, st := range c.Stations {
			c.Indicators = append(c.Indicators, st.SensePin)
		}
	}

	if c.Timing.Tick == 0 {
		c.Timing.Tick = def.Timing.Tick
	}
	if c.Timing.SubTick == 0 {
		c.Timing.SubTick = def.Timing.SubTick
	}

	if len(c.Sim.Initial) == 0 {
		c.Sim.Initial = def.Sim.Initial
	}
	if len(c.Sim.TravelTicks) == 0 {
		c.Sim.TravelTicks = def.Sim.TravelTicks
	}
	if c.Sim.Saturation == 0 {
		c.Sim.Saturation = def.Sim.Saturation
	}
	if c.Sim.WetTau == 0 {
		c.Sim.WetTau = def.Sim.WetTau
	}
	if c.Sim.DryTau == 0 {
		c.Sim.DryTau = def.Sim.DryTau
	}
	if c.Sim.DrainTau == 0 {
		c.Sim.DrainTau = def.Sim.DrainTau
	}
	if c.Sim.EventBuffer == 0 {
		c.Sim.EventBuffer = def.Sim.EventBuffer
	}
	if c.Sim.HistoryLimit == 0 {
		c.Sim.HistoryLimit = def.Sim.HistoryLimit
	}

	if len(c.RPi.Outputs) == 0 {
		c.RPi.Outputs = def.RPi.Outputs
	}
	if c.RPi.SPIHz == 0 {
		c.RPi.SPIHz = def.RPi.SPIHz
	}
}
