//go:build linux
// +build linux

package helper_test

import (
	"errors"
	"net"
	"testing"

	"github.com/lysShub/afpacket/helper"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func Test_Htons_Linux(t *testing.T) {
	a := helper.Htons(unix.ETH_P_IP)
	if helper.Htons(1) == 1 {
		require.Equal(t, uint16(unix.ETH_P_IP), a) // big endian host
	} else {
		require.Equal(t, uint16(8), a)
	}
}

func Test_Ioctl_Loopback(t *testing.T) {
	lo, err := helper.LoopbackInterface()
	require.NoError(t, err)

	ifi, err := net.InterfaceByName(lo)
	require.NoError(t, err)

	idx, err := helper.IoctlGifindex(lo)
	require.NoError(t, err)
	require.Equal(t, ifi.Index, idx)

	name, err := helper.IoctlGifname(idx)
	require.NoError(t, err)
	require.Equal(t, lo, name)

	flags, err := helper.IoctlGifflags(lo)
	require.NoError(t, err)
	require.NotZero(t, flags&unix.IFF_LOOPBACK)

	hw, err := helper.IoctlGifhwaddr(lo)
	require.NoError(t, err)
	require.Len(t, hw, 6)
}

func Test_Ioctl_NotExist(t *testing.T) {
	_, err := helper.IoctlGifindex("notexist0")
	require.ErrorIs(t, err, unix.ENODEV)

	_, err = helper.IoctlGifindex("a-name-longer-than-ifnamsiz")
	require.ErrorIs(t, err, unix.EINVAL)
}

func Test_IoctlSifhwaddr_Invalid(t *testing.T) {
	err := helper.IoctlSifhwaddr("notexist0", net.HardwareAddr{1, 2, 3})
	require.Error(t, err)

	// EPERM is checked before the device lookup
	err = helper.IoctlSifhwaddr("notexist0", net.HardwareAddr{2, 0, 0, 0, 0, 1})
	require.True(t, errors.Is(err, unix.ENODEV) || errors.Is(err, unix.EPERM), err)
}
