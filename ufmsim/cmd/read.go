package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/efbutils/ufmsim/protocol"
)

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}

	if v > protocol.MaxAddr {
		return 0, fmt.Errorf("address 0x%X is beyond 0x%X", v, protocol.MaxAddr)
	}

	return uint16(v), nil
}

func newReadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "read ADDR [COUNT]",
		Short: "Read bytes through the reader and print them.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddr(args[0])
			if err != nil {
				return err
			}

			count := uint64(1)
			if len(args) == 2 {
				count, err = strconv.ParseUint(args[1], 0, 16)
				if err != nil {
					return fmt.Errorf("invalid count %q: %w", args[1], err)
				}
			}

			st, err := buildStack(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			buf := make([]byte, count)
			n, readErr := st.reader.ReadAt(cmd.Context(), buf, int64(addr))

			out := cmd.OutOrStdout()
			for i := 0; i < n; i++ {
				fmt.Fprintf(out, "0x%04X: 0x%02X\n", int(addr)+i, buf[i])
			}

			st.report(cmd.ErrOrStderr())

			closeErr := st.close()
			if readErr != nil {
				return readErr
			}

			return closeErr
		},
	}
}
