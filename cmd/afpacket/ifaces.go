//go:build linux
// +build linux

package main

import (
	"fmt"
	"net"
	"strings"
	"text/tabwriter"

	"github.com/lysShub/afpacket/helper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var ifacesCmd = &cobra.Command{
	Use:   "ifaces",
	Short: "List network interfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		ifis, err := net.Interfaces()
		if err != nil {
			return errors.WithStack(err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tNAME\tHARDWARE\tMTU\tFLAGS")
		for _, ifi := range ifis {
			flags, err := helper.IoctlGifflags(ifi.Name)
			if err != nil {
				logger.Warn(err.Error(), "interface", ifi.Name)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
				ifi.Index, ifi.Name, ifi.HardwareAddr, ifi.MTU, flagString(flags),
			)
		}
		return w.Flush()
	},
}

var ifflags = []struct {
	flag uint32
	name string
}{
	{unix.IFF_UP, "up"},
	{unix.IFF_BROADCAST, "broadcast"},
	{unix.IFF_LOOPBACK, "loopback"},
	{unix.IFF_POINTOPOINT, "pointtopoint"},
	{unix.IFF_RUNNING, "running"},
	{unix.IFF_NOARP, "noarp"},
	{unix.IFF_PROMISC, "promisc"},
	{unix.IFF_MULTICAST, "multicast"},
}

func flagString(flags uint32) string {
	var names []string
	for _, e := range ifflags {
		if flags&e.flag != 0 {
			names = append(names, e.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
