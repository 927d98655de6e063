//go:build linux
// +build linux

package test

import (
	"errors"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// RequirePrivilege skip the test unless the process can open AF_PACKET
// sockets (CAP_NET_RAW).
func RequirePrivilege(t *testing.T) {
	t.Helper()

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			t.Skip("require CAP_NET_RAW")
		}
		t.Skipf("AF_PACKET unavailable: %s", err)
	}
	unix.Close(fd)
}

// RequireTun skip the test unless tap devices can be created (CAP_NET_ADMIN).
func RequireTun(t *testing.T) {
	t.Helper()
	RequirePrivilege(t)

	f, err := os.OpenFile("/dev/net/tun", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("tun unavailable: %s", err)
	}
	f.Close()

	if os.Geteuid() != 0 {
		t.Skip("require root")
	}
}
