//go:build linux
// +build linux

package main

import (
	"fmt"
	"runtime"

	"github.com/lysShub/afpacket"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "afpacket %s %s %s/%s\n",
			afpacket.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH,
		)
	},
}
