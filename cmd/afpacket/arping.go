//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysShub/afpacket"
	"github.com/lysShub/afpacket/helper/bpf"
	"github.com/lysShub/afpacket/route"
	"github.com/mdlayher/arp"
	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var arpingFlags struct {
	ifname   string
	src      string
	count    int
	interval time.Duration
	timeout  time.Duration
}

var arpingCmd = &cobra.Command{
	Use:   "arping IP",
	Short: "Resolve the hardware address of an IPv4 neighbor",
	Long: `Broadcast arp requests for IP and print the replies. Without --interface the
interface and source address come from the routing table.`,
	Example: `  afpacket arping -i eth0 192.168.1.1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, err := netip.ParseAddr(args[0])
		if err != nil {
			return errors.WithStack(err)
		} else if !dst.Is4() {
			return errors.Errorf("arping require IPv4 address, got %s", dst)
		}

		if arpingFlags.count < 1 {
			return errors.Errorf("invalid count %d", arpingFlags.count)
		}

		ifname, src := arpingFlags.ifname, arpingFlags.src
		if ifname == "" {
			ifname = cfg.Interface
		}
		if ifname == "" {
			if ifname, src, err = routeTo(dst, src); err != nil {
				return err
			}
		}
		srcAddr, err := sourceAddr(ifname, src)
		if err != nil {
			return err
		}

		s, err := afpacket.Listen(ifname, afpacket.SOCK_RAW, afpacket.ETH_P_ARP,
			append(cfg.Options(logger), afpacket.Filter(bpf.FilterEtherType(afpacket.ETH_P_ARP)...))...,
		)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := setRecvTimeout(s, time.Millisecond*100); err != nil {
			return err
		}
		hw, err := s.HardwareAddr()
		if err != nil {
			return err
		}
		req, err := buildRequest(hw, srcAddr, dst)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		ctx, cancel = context.WithTimeout(ctx, arpingFlags.interval*time.Duration(arpingFlags.count-1)+arpingFlags.timeout)
		defer cancel()

		eg, ctx := errgroup.WithContext(ctx)
		var (
			replies = make(chan net.HardwareAddr, arpingFlags.count)
			sent    = time.Now()
		)
		eg.Go(func() error {
			defer close(replies)
			return waitReplies(ctx, s, dst, replies)
		})

		eg.Go(func() error {
			for i := 0; i < arpingFlags.count; i++ {
				if _, err := s.Send(req); err != nil {
					return err
				}
				logger.Debug("arp request", slog.Int("seq", i), slog.String("target", dst.String()))

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(arpingFlags.interval):
				}
			}
			return nil
		})

		var n int
		for hw := range replies {
			n++
			fmt.Fprintf(cmd.OutOrStdout(), "reply from %s [%s] %s\n",
				dst, hw, time.Since(sent).Round(time.Microsecond),
			)
			if n >= arpingFlags.count {
				cancel()
			}
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		if n == 0 {
			return errors.Errorf("no reply from %s on %s", dst, ifname)
		}
		return nil
	},
}

func init() {
	arpingCmd.Flags().StringVarP(&arpingFlags.ifname, "interface", "i", "", "interface name")
	arpingCmd.Flags().StringVarP(&arpingFlags.src, "source", "s", "", "sender IPv4 address, default the interface's first one")
	arpingCmd.Flags().IntVarP(&arpingFlags.count, "count", "n", 3, "requests to send")
	arpingCmd.Flags().DurationVar(&arpingFlags.interval, "interval", time.Second, "interval between requests")
	arpingCmd.Flags().DurationVarP(&arpingFlags.timeout, "timeout", "w", time.Second*2, "wait time after the last request")
}

func waitReplies(ctx context.Context, s *afpacket.Socket, dst netip.Addr, replies chan<- net.HardwareAddr) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := s.Recv(1536)
		if errors.Is(err, afpacket.WouldBlock) {
			continue
		} else if err != nil {
			return err
		}
		if hw, ok := parseReply(b, dst); ok {
			replies <- hw
		}
	}
}

// routeTo select the out interface for dst from the routing table, src
// defaults to the route's preferred source.
func routeTo(dst netip.Addr, src string) (ifname, _ string, err error) {
	tab, err := route.GetTable()
	if err != nil {
		return "", "", err
	}
	entry := tab.Match(dst)
	if !entry.Valid() {
		return "", "", errors.Errorf("no route to %s", dst)
	}
	if ifname, err = entry.Name(); err != nil {
		return "", "", err
	}
	if src == "" && entry.Addr.IsValid() {
		src = entry.Addr.String()
	}
	logger.Debug("route", slog.String("dst", dst.String()), slog.String("entry", entry.String()))
	return ifname, src, nil
}

func sourceAddr(ifname, src string) (netip.Addr, error) {
	if src != "" {
		addr, err := netip.ParseAddr(src)
		if err != nil {
			return netip.Addr{}, errors.WithStack(err)
		}
		return addr, nil
	}

	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return netip.Addr{}, errors.WithStack(err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return netip.Addr{}, errors.WithStack(err)
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if ip4 := ipn.IP.To4(); ip4 != nil {
				return netip.AddrFrom4([4]byte(ip4)), nil
			}
		}
	}
	return netip.Addr{}, errors.Errorf("interface %s has no IPv4 address", ifname)
}

// buildRequest build a broadcast arp who-has frame.
func buildRequest(hw net.HardwareAddr, src, dst netip.Addr) ([]byte, error) {
	p, err := arp.NewPacket(arp.OperationRequest, hw, src, ethernet.Broadcast, dst)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	payload, err := p.MarshalBinary()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	f := &ethernet.Frame{
		Destination: ethernet.Broadcast,
		Source:      hw,
		EtherType:   ethernet.EtherTypeARP,
		Payload:     payload,
	}
	b, err := f.MarshalBinary()
	return b, errors.WithStack(err)
}

// parseReply return the sender hardware address if b is an arp reply from dst.
func parseReply(b []byte, dst netip.Addr) (net.HardwareAddr, bool) {
	var f ethernet.Frame
	if err := f.UnmarshalBinary(b); err != nil || f.EtherType != ethernet.EtherTypeARP {
		return nil, false
	}
	var p arp.Packet
	if err := p.UnmarshalBinary(f.Payload); err != nil {
		return nil, false
	}
	if p.Operation != arp.OperationReply || p.SenderIP != dst {
		return nil, false
	}
	return p.SenderHardwareAddr, true
}
