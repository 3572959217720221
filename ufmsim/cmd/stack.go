package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/efbutils/ufmsim/efb"
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/simulation"
	"github.com/efbutils/ufmsim/tracing"
	"github.com/efbutils/ufmsim/ufm/reader"
)

// defaultConfig is used when no board configuration is given: the largest
// device with an erased array.
func defaultConfig() *efb.Config {
	return &efb.Config{
		EFB: &efb.EFBConfig{DevDensity: "7000L", WbClkFreqMHz: 12},
		UFM: &efb.UFMConfig{ZeroMem: true},
	}
}

func loadConfig(opts *options) (*efb.Config, string, error) {
	if opts.configPath == "" {
		return defaultConfig(), ".", nil
	}

	cfg, err := efb.LoadConfig(opts.configPath)
	if err != nil {
		return nil, "", err
	}

	return cfg, filepath.Dir(opts.configPath), nil
}

func loadMemory(opts *options, cfg *efb.Config, baseDir string) (*efb.Memory, error) {
	mem, err := cfg.NewMemory(baseDir)
	if err != nil {
		return nil, err
	}

	if opts.imagePath == "" {
		return mem, nil
	}

	pages, err := efb.LoadMemFile(opts.imagePath)
	if err != nil {
		return nil, err
	}

	if err := mem.Load(0, pages); err != nil {
		return nil, err
	}

	return mem, nil
}

// stack is a reader wired to its bus peer, tracers and simulation.
type stack struct {
	cfg    *efb.Config
	sim    *simulation.Simulation
	peer   *efb.Peer
	reader *reader.Comp
	cache  *tracing.CacheCounter

	busTracer     *tracing.BusTracer
	sessionTracer *tracing.SessionTracer
}

func buildStack(opts *options, logOut io.Writer) (*stack, error) {
	cfg, baseDir, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	mem, err := loadMemory(opts, cfg, baseDir)
	if err != nil {
		return nil, err
	}

	simBuilder := simulation.MakeBuilder()
	if opts.monitor {
		simBuilder = simBuilder.WithMonitorPort(opts.monitorPort)
	} else {
		simBuilder = simBuilder.WithoutMonitoring()
	}

	if opts.traceDB == "" {
		simBuilder = simBuilder.WithoutRecording()
	} else {
		simBuilder = simBuilder.WithOutputFileName(opts.traceDB)
	}

	s, err := simBuilder.Build()
	if err != nil {
		return nil, err
	}

	st := &stack{
		cfg:   cfg,
		sim:   s,
		cache: tracing.NewCacheCounter(),
		peer: efb.NewPeer(efb.PeerSpec{
			AckLatency: opts.ackLatency,
			BusyPolls:  opts.busyPolls,
		}, mem),
	}

	st.reader, err = reader.MakeBuilder().
		WithEngine(s.GetEngine()).
		WithBus(st.peer).
		WithFreq(cfg.WishboneFreq()).
		WithAckTimeout(opts.ackTimeout).
		Build("UFMReader")
	if err != nil {
		return nil, errors.Join(err, s.Terminate())
	}

	if err := st.attach(opts, logOut); err != nil {
		return nil, errors.Join(err, s.Terminate())
	}

	return st, nil
}

func (st *stack) attach(opts *options, logOut io.Writer) error {
	if err := st.sim.RegisterComponent(st.reader); err != nil {
		return err
	}

	st.reader.AcceptHook(st.cache)

	if rec := st.sim.GetDataRecorder(); rec != nil {
		var err error

		st.busTracer, err = tracing.NewBusTracer(rec)
		if err != nil {
			return err
		}

		st.sessionTracer, err = tracing.NewSessionTracer(st.sim.GetEngine(), rec)
		if err != nil {
			return err
		}

		st.reader.AcceptHook(st.busTracer)
		st.reader.AcceptHook(st.sessionTracer)
	}

	if opts.verbose {
		logger := log.New(logOut, "", 0)
		st.reader.AcceptHook(tracing.NewStateLogger(logger, st.sim.GetEngine()))
		st.sim.GetEngine().AcceptHook(sim.NewEventLogger(logger))
	}

	return nil
}

// size returns the number of bytes of the UFM of the configured device.
func (st *stack) size() int64 {
	return int64(st.cfg.LastPage()+1) * protocol.PageSize
}

func (st *stack) report(w io.Writer) {
	stats := st.reader.Stats()

	fmt.Fprintf(w,
		"%d cycles (%.3f ms), %d requests, %d sessions, %d bus transactions\n",
		stats.Cycles,
		float64(st.reader.Spec.Freq.Seconds(sim.VTimeInCycle(stats.Cycles)))*1e3,
		stats.Requests, stats.Sessions, stats.BusTransactions)
	fmt.Fprintf(w, "cache: %s\n", st.cache.Counts())

	if v := st.peer.Violations(); len(v) > 0 {
		fmt.Fprintf(w, "%d protocol violations, first: %s\n", len(v), v[0])
	}
}

func (st *stack) close() error {
	var errs []error

	if st.busTracer != nil {
		errs = append(errs, st.busTracer.Err())
	}

	if st.sessionTracer != nil {
		errs = append(errs, st.sessionTracer.Err())
	}

	errs = append(errs, st.sim.Terminate())

	return errors.Join(errs...)
}
