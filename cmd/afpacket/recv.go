//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lysShub/afpacket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var recvFlags struct {
	socketFlags
	max   int
	count int
	pcap  string
}

var recvCmd = &cobra.Command{
	Use:   "recv",
	Short: "Capture frames",
	Example: `  afpacket recv -i eth0 -p 0x0806 -n 10
  afpacket recv -i lo --pcap lo.pcap`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recvFlags.max < 1 {
			return errors.Errorf("invalid max %d", recvFlags.max)
		} else if recvFlags.count < 0 {
			return errors.Errorf("invalid count %d", recvFlags.count)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		s, err := recvFlags.listen(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		// wake up periodically to observe ctx
		if err := setRecvTimeout(s, time.Millisecond*500); err != nil {
			return err
		}

		var w *pcapgo.Writer
		if recvFlags.pcap != "" {
			fh, err := os.Create(recvFlags.pcap)
			if err != nil {
				return errors.WithStack(err)
			}
			defer fh.Close()

			w = pcapgo.NewWriter(fh)
			if err := w.WriteFileHeader(uint32(recvFlags.max), linkType(s.Type())); err != nil {
				return errors.WithStack(err)
			}
		}

		return capture(ctx, s, w, cmd)
	},
}

func init() {
	recvFlags.register(recvCmd, afpacket.ETH_P_ALL)
	recvCmd.Flags().IntVarP(&recvFlags.max, "max", "m", 1536, "max bytes read per frame")
	recvCmd.Flags().IntVarP(&recvFlags.count, "count", "n", 0, "stop after n frames, 0 means no limit")
	recvCmd.Flags().StringVar(&recvFlags.pcap, "pcap", "", "also write frames to pcap file")
}

func capture(ctx context.Context, s *afpacket.Socket, w *pcapgo.Writer, cmd *cobra.Command) error {
	for i := 0; recvFlags.count == 0 || i < recvFlags.count; {
		b, err := s.Recv(recvFlags.max)
		if errors.Is(err, afpacket.WouldBlock) {
			select {
			case <-ctx.Done():
				logger.Info("stop capture", slog.Int("frames", i))
				return nil
			default:
				continue
			}
		} else if err != nil {
			return err
		}
		i++

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			time.Now().Format("15:04:05.000000"), summary(b, s.Type(), s.Protocol()),
		)
		if w != nil {
			ci := gopacket.CaptureInfo{Timestamp: time.Now(), CaptureLength: len(b), Length: len(b)}
			if err := w.WritePacket(ci, b); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}

func setRecvTimeout(s *afpacket.Socket, d time.Duration) error {
	raw, err := s.SyscallConn()
	if err != nil {
		return err
	}
	tv := unix.NsecToTimeval(d.Nanoseconds())
	var serr error
	if err := raw.Control(func(fd uintptr) {
		serr = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	}); err != nil {
		return err
	}
	return errors.WithStack(serr)
}

func linkType(typ int) layers.LinkType {
	if typ == afpacket.SOCK_DGRAM {
		return layers.LinkTypeRaw
	}
	return layers.LinkTypeEthernet
}

// summary decode b as far as gopacket can, e.g.
//
//	74 bytes Ethernet/IPv4/ICMPv4/Payload
func summary(b []byte, typ int, proto uint16) string {
	var first gopacket.Decoder = layers.LayerTypeEthernet
	if typ == afpacket.SOCK_DGRAM {
		// link-layer header removed
		first = layers.EthernetType(proto)
	}
	p := gopacket.NewPacket(b, first, gopacket.NoCopy)

	var names = make([]string, 0, 4)
	for _, l := range p.Layers() {
		names = append(names, l.LayerType().String())
	}
	if len(names) == 0 {
		names = append(names, "-")
	}
	return fmt.Sprintf("%d bytes %s", len(b), strings.Join(names, "/"))
}

func protoString(proto uint16) string {
	if s := layers.EthernetType(proto).String(); !strings.HasPrefix(s, "Unknown") {
		return fmt.Sprintf("0x%04x(%s)", proto, s)
	}
	return fmt.Sprintf("0x%04x", proto)
}
