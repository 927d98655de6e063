//go:build linux
// +build linux

package afpacket

import (
	"github.com/lysShub/afpacket/helper"
	"golang.org/x/sys/unix"
)

var defaultOps sysops = unixOps{}

type unixOps struct{}

func (unixOps) socket(domain, typ int, proto uint16) (int, error) {
	return unix.Socket(domain, typ|unix.SOCK_CLOEXEC, int(proto))
}

func (unixOps) setsockoptInt(fd, level, opt, value int) error {
	return unix.SetsockoptInt(fd, level, opt, value)
}

func (unixOps) setNonblock(fd int, nonblocking bool) error {
	return unix.SetNonblock(fd, nonblocking)
}

func (unixOps) ifindex(name string) (int, error) {
	return helper.IoctlGifindex(name)
}

func (unixOps) bind(fd, ifindex int, proto uint16) error {
	return unix.Bind(fd, &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  ifindex,
	})
}

func (unixOps) wait(fd int, write bool) error {
	var fds = []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	if write {
		fds[0].Events = unix.POLLOUT
	}
	for {
		_, err := unix.Poll(fds, -1)
		if err != unix.EINTR {
			return err
		}
	}
}

func (unixOps) send(fd int, b []byte) (int, error) {
	return unix.SendmsgN(fd, b, nil, nil, 0)
}

func (unixOps) recv(fd int, b []byte) (int, error) {
	n, _, err := unix.Recvfrom(fd, b, 0)
	return n, err
}

func (unixOps) close(fd int) error {
	return unix.Close(fd)
}
