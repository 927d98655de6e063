//go:build linux
// +build linux

package main

import (
	"log/slog"
	"os"

	"github.com/lysShub/afpacket"
	"github.com/lysShub/afpacket/errorx"
	"github.com/lysShub/afpacket/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    = config.Default()
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "afpacket",
	Short: "Send and receive raw link-layer frames.",
	Long:  `afpacket opens AF_PACKET sockets to inject and capture frames on a network interface.`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cfgFile != "" {
			if cfg, err = config.Load(cfgFile); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = cfg.Log.Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "yaml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")
}

func main() {
	rootCmd.AddCommand(ifacesCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(recvCmd)
	rootCmd.AddCommand(arpingCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error(),
			slog.String("kind", afpacket.KindOf(err).String()),
			errorx.TraceAttr(err),
		)
		os.Exit(1)
	}
}

// socketFlags are shared by commands opening a socket, unset flags fall
// back to the config file.
type socketFlags struct {
	ifname string
	typ    string
	proto  uint16
}

func (f *socketFlags) register(cmd *cobra.Command, proto uint16) {
	cmd.Flags().StringVarP(&f.ifname, "interface", "i", "", "interface name")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "raw", "socket type, raw or dgram")
	cmd.Flags().Uint16VarP(&f.proto, "protocol", "p", proto, "ethernet protocol, e.g. 0x0800")
}

func (f *socketFlags) listen(cmd *cobra.Command, opts ...afpacket.Option) (*afpacket.Socket, error) {
	var c = *cfg
	if cmd.Flags().Changed("interface") || c.Interface == "" {
		c.Interface = f.ifname
	}
	if cmd.Flags().Changed("type") {
		c.Type = f.typ
	}
	if cmd.Flags().Changed("protocol") || cfgFile == "" {
		c.Protocol = f.proto
	}
	typ, err := c.SocketType()
	if err != nil {
		return nil, err
	}
	if c.Interface == "" {
		return nil, errors.New("require interface name, use -i")
	}

	s, err := afpacket.Listen(c.Interface, typ, c.Protocol, append(c.Options(logger), opts...)...)
	if err != nil {
		return nil, err
	}
	logger.Info("listen",
		slog.String("interface", c.Interface),
		slog.String("type", c.Type),
		slog.String("protocol", protoString(c.Protocol)),
	)
	return s, nil
}
