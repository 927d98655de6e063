//go:build linux
// +build linux

package bpf

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// SetBPF attach the classic BPF program ins to the socket, replacing any
// previously attached one.
func SetBPF(raw syscall.RawConn, ins []bpf.Instruction) error {
	var prog *unix.SockFprog
	if rawIns, err := bpf.Assemble(ins); err != nil {
		return errors.WithStack(err)
	} else if len(rawIns) == 0 {
		return errors.New("empty bpf program")
	} else {
		prog = &unix.SockFprog{
			Len:    uint16(len(rawIns)),
			Filter: (*unix.SockFilter)(unsafe.Pointer(&rawIns[0])),
		}
	}

	var e error
	if err := raw.Control(func(fd uintptr) {
		e = unix.SetsockoptSockFprog(
			int(fd), unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, prog,
		)
	}); err != nil {
		return err
	}
	return errors.WithStack(e)
}
