package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/efbutils/ufmsim/monitoring"
)

const dumpChunk = 256

type dumpOptions struct {
	start  int64
	length int64
	raw    bool
}

func newDumpCmd(opts *options) *cobra.Command {
	dopts := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Stream a range of the UFM as a hex dump or raw bytes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := buildStack(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			dumpErr := dump(cmd, st, dopts)
			st.report(cmd.ErrOrStderr())

			closeErr := st.close()
			if dumpErr != nil {
				return dumpErr
			}

			return closeErr
		},
	}

	cmd.Flags().Int64Var(&dopts.start, "start", 0, "first byte address")
	cmd.Flags().Int64Var(&dopts.length, "length", 0,
		"number of bytes, the rest of the array if 0")
	cmd.Flags().BoolVar(&dopts.raw, "raw", false,
		"write raw bytes instead of a hex dump")

	return cmd
}

func dump(cmd *cobra.Command, st *stack, dopts *dumpOptions) error {
	length := dopts.length
	if length == 0 {
		length = st.size() - dopts.start
	}

	if dopts.start < 0 || length <= 0 || dopts.start+length > st.size() {
		return fmt.Errorf("range [0x%X, 0x%X) is outside the UFM of %d bytes",
			dopts.start, dopts.start+length, st.size())
	}

	var bar *monitoring.ProgressBar
	if mon := st.sim.GetMonitor(); mon != nil {
		bar = mon.CreateProgressBar("dump", uint64(length))
		defer mon.CompleteProgressBar(bar)
	}

	var out io.Writer = cmd.OutOrStdout()
	if !dopts.raw {
		dumper := hex.Dumper(out)
		defer dumper.Close()
		out = dumper
	}

	buf := make([]byte, dumpChunk)
	for off := dopts.start; off < dopts.start+length; off += dumpChunk {
		chunk := buf[:min(int64(dumpChunk), dopts.start+length-off)]

		if bar != nil {
			bar.IncrementInProgress(uint64(len(chunk)))
		}

		n, err := st.reader.ReadAt(cmd.Context(), chunk, off)
		if _, werr := out.Write(chunk[:n]); werr != nil {
			return werr
		}

		if err != nil {
			return err
		}

		if bar != nil {
			bar.MoveInProgressToFinished(uint64(n))
		}
	}

	return nil
}
