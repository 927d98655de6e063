//go:build !linux
// +build !linux

package afpacket

import (
	"runtime"
	"syscall"

	"github.com/pkg/errors"
)

var defaultOps sysops = unimplementedOps{}

var errUnimplemented = errors.Errorf("afpacket: not implemented on %s", runtime.GOOS)

type unimplementedOps struct{}

func (unimplementedOps) socket(int, int, uint16) (int, error) {
	return 0, errors.WithMessage(syscall.EAFNOSUPPORT, errUnimplemented.Error())
}
func (unimplementedOps) setsockoptInt(int, int, int, int) error { return errUnimplemented }
func (unimplementedOps) setNonblock(int, bool) error            { return errUnimplemented }
func (unimplementedOps) ifindex(string) (int, error)            { return 0, errUnimplemented }
func (unimplementedOps) bind(int, int, uint16) error            { return errUnimplemented }
func (unimplementedOps) wait(int, bool) error                   { return errUnimplemented }
func (unimplementedOps) send(int, []byte) (int, error)          { return 0, errUnimplemented }
func (unimplementedOps) recv(int, []byte) (int, error)          { return 0, errUnimplemented }
func (unimplementedOps) close(int) error                        { return errUnimplemented }
