// Package cmd provides the command-line interface of ufmsim.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide defaults for the global flags.
const (
	EnvConfig      = "UFMSIM_CONFIG"
	EnvTraceDB     = "UFMSIM_TRACE_DB"
	EnvMonitorPort = "UFMSIM_MONITOR_PORT"
)

type options struct {
	configPath  string
	imagePath   string
	traceDB     string
	monitor     bool
	monitorPort int
	ackTimeout  uint64
	ackLatency  int
	busyPolls   int
	verbose     bool
}

// NewRootCmd creates the ufmsim command with all its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ufmsim",
		Short: "Read the UFM of a simulated MachXO2 EFB.",
		Long: `ufmsim runs a cycle-accurate model of the UFM reader ` +
			`(page buffer, session streamer and frame sequencer) against a ` +
			`model of the EFB configuration interface, and reads bytes ` +
			`through it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"board configuration file (YAML)")
	flags.StringVar(&opts.imagePath, "image", "",
		"UFM image loaded from page 0, overriding the configured content")
	flags.StringVar(&opts.traceDB, "trace-db", "",
		"record bus transactions and sessions into this SQLite file")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"start the monitoring server")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if not set")
	flags.Uint64Var(&opts.ackTimeout, "ack-timeout", 0,
		"cycles to wait for a bus acknowledge, 0 waits forever")
	flags.IntVar(&opts.ackLatency, "ack-latency", 1,
		"cycles the configuration interface takes to acknowledge")
	flags.IntVar(&opts.busyPolls, "busy-polls", 0,
		"status polls that report busy after each enable")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"log every state change")

	rootCmd.AddCommand(
		newReadCmd(opts),
		newDumpCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

// applyEnv loads .env and fills the flags that were not set on the command
// line.
func applyEnv(cmd *cobra.Command, opts *options) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	flags := cmd.Flags()

	if v, ok := os.LookupEnv(EnvConfig); ok && !flags.Changed("config") {
		opts.configPath = v
	}

	if v, ok := os.LookupEnv(EnvTraceDB); ok && !flags.Changed("trace-db") {
		opts.traceDB = v
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok && !flags.Changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		opts.monitorPort = port
		opts.monitor = true
	}

	if opts.monitorPort != 0 {
		opts.monitor = true
	}

	return nil
}

// Execute runs the command line and exits through atexit, so that trace
// databases are flushed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
