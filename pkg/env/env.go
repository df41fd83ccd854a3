package env

import (
	"fmt"
	"log"

	"github.com/robotalks/g4link/pkg/bridge"
	"github.com/robotalks/g4link/pkg/bridge/mqtt"
	"github.com/robotalks/g4link/pkg/bridge/websocket"
	fx "github.com/robotalks/g4link/pkg/framework"
	"github.com/robotalks/g4link/pkg/link"
	"github.com/robotalks/g4link/pkg/link/uart"
	"github.com/robotalks/g4link/pkg/sim"
)

// Env is the runtime of the daemon.
type Env struct {
	Config     *Config
	Bus        *bridge.Bus
	Supervisor *link.Supervisor
	Sampler    *link.Sampler
	Runnables  []fx.Runnable
}

// NewSupervisor creates a Supervisor on serial ports, or on simulated
// devices if Simulate is set.
func (c *Config) NewSupervisor(sink link.Sink) *link.Supervisor {
	var s *link.Supervisor
	if c.Simulate > 0 {
		bench := sim.NewBench(c.Simulate)
		s = link.NewSupervisor(bench, bench, sink)
		for _, d := range bench.Devices {
			d.Manufacturer = c.Vendor
		}
	} else {
		s = link.NewSupervisor(uart.Enumerator{}, uart.NewOpener(c.Baud), sink)
	}
	s.Vendor = c.Vendor
	s.USBIDs = c.USBIDList()
	if c.Cooldown > 0 {
		s.Cooldown = c.Cooldown
	}
	if c.SendInterval > 0 {
		s.SendInterval = c.SendInterval
	}
	return s
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.Vendor == "" {
		return nil, fmt.Errorf("vendor must be specified")
	}
	e := &Env{Config: c, Bus: bridge.NewBus()}
	e.Supervisor = c.NewSupervisor(e.Bus)
	e.Sampler = link.NewSampler(e.Supervisor.Stats, e.Bus)
	if c.StatsInterval > 0 {
		e.Sampler.Interval = c.StatsInterval
	}
	e.Runnables = append(e.Runnables, e.Supervisor, e.Sampler, &bridge.Logger{Bus: e.Bus})
	if c.MQTTBrokerURL != "" {
		if c.ID == "" {
			return nil, fmt.Errorf("host id must be specified with MQTT")
		}
		b, err := mqtt.NewBridge(c.MQTTBrokerURL, c.ID, e.Bus, e.Supervisor, e.Supervisor.Settings)
		if err != nil {
			return nil, fmt.Errorf("create MQTT bridge error: %w", err)
		}
		b.Meta = mqtt.Meta{Vendor: c.Vendor, Baud: c.Baud}
		e.Runnables = append(e.Runnables, b)
	}
	if c.HTTPAddr != "" {
		e.Runnables = append(e.Runnables, &websocket.Server{
			Addr:       c.HTTPAddr,
			Bus:        e.Bus,
			Controller: e.Supervisor,
			Settings:   e.Supervisor.Settings,
		})
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// Run runs all runnables until the runner context is cancelled.
func (e *Env) Run(runner *fx.Runner) error {
	runner.Go(e.Runnables...)
	err := runner.Wait()
	e.Bus.Close()
	return err
}

// RunOrFail runs with signal handling and fails on error.
func (e *Env) RunOrFail() {
	if err := e.Run(fx.NewRunner().HandleSignals()); err != nil {
		log.Fatalln(err)
	}
}
