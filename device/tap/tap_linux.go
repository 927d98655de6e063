//go:build linux
// +build linux

package tap

import (
	"encoding/binary"
	"net"
	"os"

	"github.com/lysShub/afpacket/helper"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Tap is a layer-2 virtual interface: frames written to it are received by
// the kernel on interface Name, frames the kernel sends on Name are read
// from it.
type Tap struct {
	file *os.File
	name string
}

// Create create the tap interface name and bring it up. A non-nil hw is
// set as its unicast hardware address before the interface goes up.
func Create(name string, hw net.HardwareAddr) (*Tap, error) {
	if hw != nil && (len(hw) != 6 || hw[0]&0x01 != 0) {
		return nil, errors.Errorf("invalid unicast hardware address %s", hw)
	}

	file, err := os.OpenFile("/dev/net/tun", os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	t := &Tap{file: file, name: name}

	ifq, err := unix.NewIfreq(name)
	if err != nil {
		t.Close()
		return nil, errors.WithStack(err)
	}
	ifq.SetUint32(unix.IFF_TAP | unix.IFF_NO_PI)
	if err = unix.IoctlIfreq(int(file.Fd()), unix.TUNSETIFF, ifq); err != nil {
		t.Close()
		return nil, errors.WithMessagef(errors.WithStack(err), "create tap %s", name)
	}

	if hw != nil {
		if err = helper.IoctlSifhwaddr(name, hw); err != nil {
			t.Close()
			return nil, err
		}
	}
	if err = t.Up(); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// Close close the queue, the kernel removes the interface with it.
func (t *Tap) Close() error {
	return errors.WithStack(t.file.Close())
}

// Read read one frame sent by the kernel on the interface.
func (t *Tap) Read(eth []byte) (int, error) {
	n, err := t.file.Read(eth)
	return n, errors.WithStack(err)
}

// ReadType read until a frame of ether type typ, the kernel sends its own
// traffic (IPv6 router solicitation, MLD) as soon as the interface is up.
func (t *Tap) ReadType(eth []byte, typ uint16) (int, error) {
	for {
		n, err := t.Read(eth)
		if err != nil {
			return 0, err
		}
		if n >= 14 && binary.BigEndian.Uint16(eth[12:14]) == typ {
			return n, nil
		}
	}
}

// Write inject one frame, as if it arrived on the interface.
func (t *Tap) Write(eth []byte) (int, error) {
	n, err := t.file.Write(eth)
	return n, errors.WithStack(err)
}

func (t *Tap) Up() error   { return helper.IoctlAifflags(t.name, unix.IFF_UP|unix.IFF_RUNNING) }
func (t *Tap) Down() error { return helper.IoctlDifflags(t.name, unix.IFF_UP|unix.IFF_RUNNING) }

func (t *Tap) Flags() (uint32, error) {
	return helper.IoctlGifflags(t.name)
}

func (t *Tap) Name() string { return t.name }

func (t *Tap) Index() (int, error) {
	return helper.IoctlGifindex(t.name)
}

// SetHardware change the hardware address, the interface is taken down
// while doing so.
func (t *Tap) SetHardware(hw net.HardwareAddr) error {
	if len(hw) != 6 || hw[0]&0x01 != 0 {
		return errors.Errorf("invalid unicast hardware address %s", hw)
	}
	if err := t.Down(); err != nil {
		return err
	}
	if err := helper.IoctlSifhwaddr(t.name, hw); err != nil {
		t.Up()
		return err
	}
	return t.Up()
}

func (t *Tap) Hardware() (net.HardwareAddr, error) {
	return helper.IoctlGifhwaddr(t.name)
}
