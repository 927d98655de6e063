//go:build linux
// +build linux

package helper

import (
	"net"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ctlsock open a socket used only as ioctl target
func ctlsock() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return fd, nil
}

// IoctlGifindex resolve interface name to kernel index, see netdevice(7)
func IoctlGifindex(ifi string) (int, error) {
	fd, err := ctlsock()
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)

	req, err := unix.NewIfreq(ifi)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if err = unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, req); err != nil {
		return 0, errors.WithStack(err)
	}
	return int(req.Uint32()), nil
}

func IoctlGifname(ifi int) (string, error) {
	fd, err := ctlsock()
	if err != nil {
		return "", err
	}
	defer unix.Close(fd)

	req, _ := unix.NewIfreq("")
	req.SetUint32(uint32(ifi))

	err = unix.IoctlIfreq(fd, unix.SIOCGIFNAME, req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return req.Name(), nil
}

// https://man7.org/linux/man-pages/man7/netdevice.7.html
type ifreqHwaddr struct {
	ifname     [unix.IFNAMSIZ]byte
	ifr_hwaddr unix.RawSockaddr
}

func IoctlGifhwaddr(ifi string) (net.HardwareAddr, error) {
	fd, err := ctlsock()
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	req, err := unix.NewIfreq(ifi)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = unix.IoctlIfreq(fd, unix.SIOCGIFHWADDR, req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	hwaddr := (*ifreqHwaddr)(unsafe.Pointer(req))
	switch hwaddr.ifr_hwaddr.Family {
	case unix.ARPHRD_ETHER, unix.ARPHRD_LOOPBACK:
	case unix.ARPHRD_NONE:
	// without hardware, such as tun device
	default:
		return nil, errors.Errorf("unexpect hwaddr family 0x%02x", hwaddr.ifr_hwaddr.Family)
	}

	var addr = make(net.HardwareAddr, 0, 6)
	for _, e := range hwaddr.ifr_hwaddr.Data[:6] {
		addr = append(addr, byte(e))
	}
	return addr, nil
}

// IoctlSifhwaddr set an ethernet interface's hardware address, the
// interface must be down.
func IoctlSifhwaddr(ifi string, hw net.HardwareAddr) error {
	if len(hw) != 6 {
		return errors.Errorf("invalid ethernet address %s", hw)
	}
	fd, err := ctlsock()
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	req, err := unix.NewIfreq(ifi)
	if err != nil {
		return errors.WithStack(err)
	}
	hwaddr := (*ifreqHwaddr)(unsafe.Pointer(req))
	hwaddr.ifr_hwaddr.Family = unix.ARPHRD_ETHER
	// Data is int8 or uint8 depending on arch
	copy((*[len(hwaddr.ifr_hwaddr.Data)]byte)(unsafe.Pointer(&hwaddr.ifr_hwaddr.Data))[:], hw)

	if err = unix.IoctlIfreq(fd, unix.SIOCSIFHWADDR, req); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func IoctlGifflags(ifi string) (uint32, error) {
	if fd, err := ctlsock(); err != nil {
		return 0, err
	} else {
		defer unix.Close(fd)
		return ioctlGifflags(ifi, fd)
	}
}

func ioctlGifflags(ifi string, fd int) (uint32, error) {
	ifq, err := unix.NewIfreq(ifi)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	err = unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifq)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return ifq.Uint32(), nil
}

func ioctlSifflags(ifi string, fd int, flags uint32) error {
	ifq, err := unix.NewIfreq(ifi)
	if err != nil {
		return errors.WithStack(err)
	}
	ifq.SetUint32(flags)

	err = unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifq)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// IoctlAifflags add interface flags
func IoctlAifflags(ifi string, flags uint32) error {
	fd, err := ctlsock()
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	old, err := ioctlGifflags(ifi, fd)
	if err != nil {
		return err
	}
	new := old | flags
	if new == old {
		return nil
	}
	return ioctlSifflags(ifi, fd, new)
}

// IoctlDifflags del interface flags
func IoctlDifflags(ifi string, flags uint32) error {
	fd, err := ctlsock()
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	old, err := ioctlGifflags(ifi, fd)
	if err != nil {
		return err
	}
	new := old &^ flags
	if new == old {
		return nil
	}
	return ioctlSifflags(ifi, fd, new)
}

// LoopbackInterface return the name of the first up loopback interface
func LoopbackInterface() (ifi string, err error) {
	if flags, err := IoctlGifflags("lo"); err == nil && flags&unix.IFF_UP != 0 {
		return "lo", nil
	}

	ifs, err := net.Interfaces()
	if err != nil {
		return "", errors.WithStack(err)
	}
	for _, e := range ifs {
		if e.Flags&net.FlagLoopback != 0 && e.Flags&net.FlagUp != 0 {
			return e.Name, nil
		}
	}
	return "", errors.WithStack(unix.ENODEV)
}
