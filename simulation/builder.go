package simulation

import (
	"errors"
	"path/filepath"

	"github.com/rs/xid"

	"github.com/efbutils/ufmsim/datarecording"
	"github.com/efbutils/ufmsim/monitoring"
	"github.com/efbutils/ufmsim/sim"
)

// ErrMonitorDisabled is returned when a monitor port is set on a simulation
// without monitoring.
var ErrMonitorDisabled = errors.New(
	"monitor port cannot be set when monitoring is disabled")

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordingOn    bool
	outputFileName string
	outputDir      string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:   true,
		recordingOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithoutRecording sets the simulation to not create a trace database.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the file of the trace database.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithOutputDir sets the directory of the default trace database file.
func (b Builder) WithOutputDir(dir string) Builder {
	b.outputDir = dir
	return b
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if !b.monitorOn && b.monitorPort != 0 {
		return nil, ErrMonitorDisabled
	}

	s := &Simulation{
		id:            xid.New().String(),
		engine:        sim.NewSerialEngine(),
		compNameIndex: make(map[string]int),
	}

	if b.recordingOn {
		path := b.outputFileName
		if path == "" {
			path = filepath.Join(b.outputDir, "ufmsim_"+s.id+".sqlite3")
		}

		recorder, err := datarecording.New(path)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterEngine(s.engine)

		if _, err := s.monitor.StartServer(); err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}
