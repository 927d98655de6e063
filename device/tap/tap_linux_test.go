//go:build linux
// +build linux

package tap_test

import (
	"net"
	"testing"

	"github.com/lysShub/afpacket/device/tap"
	"github.com/lysShub/afpacket/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func Test_Create(t *testing.T) {
	test.RequireTun(t)

	hw := test.RandHardware(t)
	ap, err := tap.Create("afptaptest", hw)
	require.NoError(t, err)
	defer ap.Close()
	require.Equal(t, "afptaptest", ap.Name())

	ifi, err := net.InterfaceByName(ap.Name())
	require.NoError(t, err)
	idx, err := ap.Index()
	require.NoError(t, err)
	require.Equal(t, ifi.Index, idx)

	got, err := ap.Hardware()
	require.NoError(t, err)
	require.Equal(t, hw.String(), got.String())

	flags, err := ap.Flags()
	require.NoError(t, err)
	require.NotZero(t, flags&unix.IFF_UP)

	require.NoError(t, ap.Down())
	flags, err = ap.Flags()
	require.NoError(t, err)
	require.Zero(t, flags&unix.IFF_UP)
	require.NoError(t, ap.Up())
}

func Test_SetHardware(t *testing.T) {
	test.RequireTun(t)

	ap, err := tap.Create("afptaptest1", nil)
	require.NoError(t, err)
	defer ap.Close()

	hw := test.RandHardware(t)
	require.NoError(t, ap.SetHardware(hw))
	got, err := ap.Hardware()
	require.NoError(t, err)
	require.Equal(t, hw.String(), got.String())

	flags, err := ap.Flags()
	require.NoError(t, err)
	require.NotZero(t, flags&unix.IFF_UP)

	multicast := test.RandHardware(t)
	multicast[0] |= 0x01
	require.Error(t, ap.SetHardware(multicast))
}

func Test_Create_Invalid(t *testing.T) {
	_, err := tap.Create("afptaptest2", net.HardwareAddr{0x01, 0, 0, 0, 0, 1})
	require.Error(t, err)

	_, err = tap.Create("afptaptest2", net.HardwareAddr{0x02, 0})
	require.Error(t, err)
}
