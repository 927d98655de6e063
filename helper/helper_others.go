//go:build !linux
// +build !linux

package helper

import (
	"fmt"
	"net"
	"runtime"
)

var errUnimplemented = fmt.Errorf("helper: not implemented on %s", runtime.GOOS)

func IoctlGifindex(string) (int, error)               { return 0, errUnimplemented }
func IoctlGifname(int) (string, error)                { return "", errUnimplemented }
func IoctlGifhwaddr(string) (net.HardwareAddr, error) { return nil, errUnimplemented }
func IoctlSifhwaddr(string, net.HardwareAddr) error   { return errUnimplemented }
func IoctlGifflags(string) (uint32, error)            { return 0, errUnimplemented }
func IoctlAifflags(string, uint32) error              { return errUnimplemented }
func IoctlDifflags(string, uint32) error              { return errUnimplemented }
func LoopbackInterface() (string, error)              { return "", errUnimplemented }
