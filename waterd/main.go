// Command waterd runs the watering controller on a Linux board: GPIO outputs
// drive the valves and probes, an MCP3008 on SPI converts the probe voltages.
// Every controller event is written to stdout as a trace line.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/gowater/pkg/config"
	"github.com/itohio/gowater/pkg/monitor"
	"github.com/itohio/gowater/pkg/rpi"
	"github.com/itohio/gowater/pkg/sim"
	"github.com/itohio/gowater/pkg/water"
)

func main() {
	var (
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		simFlag     = flag.Bool("sim", false, "Run against simulated soil instead of the GPIO/SPI hardware")
		onceFlag    = flag.Bool("once", false, "Run a single watering cycle and exit. Diagnostic: a fault exits with code 2 instead of entering the alarm")
		stationFlag = flag.Int("station", 0, "Process only this station once and exit. Diagnostic: a fault exits with code 2 instead of entering the alarm")
		quietFlag   = flag.Bool("quiet", false, "Trace only valve, dose, alarm and fault events")
	)
	flag.Parse()

	os.Exit(run(*configFlag, *simFlag, *onceFlag, *stationFlag, *quietFlag))
}

// run returns the process exit code: 0 on a clean stop, 2 on a controller
// fault and 1 on any other failure. Only the continuous mode hands a fault to
// the alarm; the single-cycle and single-station modes are diagnostics that
// stop with all valves closed and report the fault through the exit code.
func run(configPath string, useSim, once bool, station int, quiet bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var platform water.Platform
	if useSim {
		platform = sim.New(&cfg.Sim, cfg.Wiring())
		log.Printf("Using simulated soil")
	} else {
		p, err := rpi.Open(cfg)
		if err != nil {
			log.Printf("Failed to open hardware: %v", err)
			return 1
		}
		defer func() {
			if err := p.Close(); err != nil {
				log.Printf("Error releasing outputs: %v", err)
			}
		}()
		platform = p
	}

	s := water.NewSequencer(platform, cfg.Constants(), cfg.Wiring())
	mon := monitor.New(cfg)
	done := startEventChain(s, mon, cfg.Sim.EventBuffer, quiet)

	log.Printf("Controller started (%s, tick %s)", cfg.Controller.TravelStop, cfg.Timing.Tick)

	switch {
	case station != 0:
		err = s.ProcessStation(ctx, station)
	case once:
		err = s.RunCycle(ctx)
	default:
		err = s.Run(ctx)
	}

	done()

	snap := mon.Snapshot()
	log.Printf("Controller stopped in %s (station %d) after %d cycles, %d events", s.State(), s.Current(), snap.Cycles, snap.Events)
	if snap.Violations > 0 {
		log.Printf("Valve exclusion violated %d times", snap.Violations)
	}

	switch {
	case water.IsFault(err):
		log.Printf("Controller faulted: %v", err)
		return 2
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	default:
		log.Printf("Controller failed: %v", err)
		return 1
	}
}

// startEventChain feeds sequencer events into the monitor and a stdout trace.
// The returned function closes the chain and waits until it drains.
func startEventChain(s *water.Sequencer, mon *monitor.Monitor, bufSize int, quiet bool) func() {
	events := make(chan water.Event, bufSize)
	s.OnEvent(func(e water.Event) {
		select {
		case events <- e:
		default:
			log.Printf("Events channel full, dropping %s event", e.Kind)
		}
	})

	mon.OnUpdate(logFaults())

	toMonitor, toTrace := monitor.Tee(events, bufSize)
	if quiet {
		toTrace = monitor.NewKindFilter(bufSize, water.KindValve, water.KindDose, water.KindAlarm, water.KindFault)(toTrace)
	}
	toTrace = monitor.NewTraceWriter(os.Stdout, bufSize)(toTrace)

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.ProcessEvents(toMonitor)
	}()

	traceDone := make(chan struct{})
	go func() {
		defer close(traceDone)
		for range toTrace {
		}
	}()

	return func() {
		close(events)
		<-monitorDone
		<-traceDone
	}
}

// logFaults returns a monitor callback that logs the first fault it sees.
func logFaults() func(monitor.Snapshot) {
	reported := false
	return func(snap monitor.Snapshot) {
		if snap.Faulted && !reported {
			reported = true
			log.Printf("Fault at station %d (value %d), all valves closed", snap.FaultStation, snap.FaultValue)
		}
	}
}
