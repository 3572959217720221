// Package simulation bundles the engine of a run with its trace database
// and its monitoring server.
package simulation

import (
	"errors"
	"fmt"

	"github.com/efbutils/ufmsim/datarecording"
	"github.com/efbutils/ufmsim/monitoring"
	"github.com/efbutils/ufmsim/sim"
)

// A Simulation provides the services a run of the reader stack needs.
type Simulation struct {
	id     string
	engine *sim.SerialEngine

	dataRecorder *datarecording.SQLiteRecorder
	monitor      *monitoring.Monitor

	components    []sim.Component
	compNameIndex map[string]int
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil without recording.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil without monitoring.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterComponent registers a component with the simulation and its
// monitor.
func (s *Simulation) RegisterComponent(c sim.Component) error {
	name := c.Name()
	if _, exists := s.compNameIndex[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	s.components = append(s.components, c)
	s.compNameIndex[name] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}

	return nil
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return append([]sim.Component(nil), s.components...)
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, ok := s.compNameIndex[name]
	if !ok {
		return nil
	}

	return s.components[i]
}

// Terminate runs the simulation-end handlers, writes the trace database and
// stops the monitoring server.
func (s *Simulation) Terminate() error {
	s.engine.Finished()

	var errs []error

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}
