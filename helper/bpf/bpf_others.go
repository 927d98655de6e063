//go:build !linux
// +build !linux

package bpf

import (
	"fmt"
	"runtime"
	"syscall"

	"golang.org/x/net/bpf"
)

func SetBPF(raw syscall.RawConn, ins []bpf.Instruction) error {
	return fmt.Errorf("bpf: not implemented on %s", runtime.GOOS)
}
