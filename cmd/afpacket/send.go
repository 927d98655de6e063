//go:build linux
// +build linux

package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var sendFlags struct {
	socketFlags
	count    int
	interval time.Duration
}

var sendCmd = &cobra.Command{
	Use:   "send HEX...",
	Short: "Send hex encoded frames",
	Long: `Send every argument as one frame. With --type raw the argument must hold a
complete link-layer frame, with --type dgram only the payload.`,
	Example: `  afpacket send -i lo -p 0x88b5 ffffffffffff000000000001 88b5 68656c6c6f`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseHex(strings.Join(args, ""))
		if err != nil {
			return err
		}

		s, err := sendFlags.listen(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		for i := 0; i < sendFlags.count; i++ {
			if i > 0 {
				time.Sleep(sendFlags.interval)
			}
			n, err := s.Send(frame)
			if err != nil {
				return err
			}
			logger.Info("send", slog.Int("seq", i), slog.Int("bytes", n))
			if n < len(frame) {
				logger.Warn("short send", slog.Int("bytes", n), slog.Int("want", len(frame)))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d frame(s) of %d bytes\n", sendFlags.count, len(frame))
		return nil
	},
}

func init() {
	sendFlags.register(sendCmd, 0)
	sendCmd.Flags().IntVarP(&sendFlags.count, "count", "n", 1, "times to send")
	sendCmd.Flags().DurationVar(&sendFlags.interval, "interval", time.Second, "interval between sends")
}

// parseHex decode s ignoring whitespace and the separators ':', '-', '.'.
func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-', '.':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithStack(err)
	} else if len(b) == 0 {
		return nil, errors.New("empty frame")
	}
	return b, nil
}
