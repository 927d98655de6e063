//go:build linux
// +build linux

package afpacket_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/lysShub/afpacket"
	"github.com/lysShub/afpacket/device/tap"
	"github.com/lysShub/afpacket/helper/bpf"
	"github.com/lysShub/afpacket/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

func setRecvTimeout(t *testing.T, s *afpacket.Socket, d time.Duration) {
	raw, err := s.SyscallConn()
	require.NoError(t, err)

	tv := unix.NsecToTimeval(d.Nanoseconds())
	var e error
	require.NoError(t, raw.Control(func(fd uintptr) {
		e = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	}))
	require.NoError(t, e)
}

func recvType(t *testing.T, s *afpacket.Socket, typ uint16) []byte {
	for {
		b, err := s.Recv(1536)
		require.NoError(t, err)
		if len(b) >= header.EthernetMinimumSize && uint16(header.Ethernet(b).Type()) == typ {
			return b
		}
	}
}

func Test_Listen_Loopback(t *testing.T) {
	test.RequirePrivilege(t)

	s, err := afpacket.Listen("lo", afpacket.SOCK_RAW, test.ExperimentalEtherType)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, afpacket.StateBound, s.State())
	require.Equal(t, afpacket.SOCK_RAW, s.Type())
	require.Equal(t, uint16(test.ExperimentalEtherType), s.Protocol())

	ifi, err := net.InterfaceByName("lo")
	require.NoError(t, err)
	name, idx := s.Interface()
	require.Equal(t, "lo", name)
	require.Equal(t, ifi.Index, idx)

	hw, err := s.HardwareAddr()
	require.NoError(t, err)
	require.Len(t, hw, 6)

	n, err := s.Send(nil)
	require.NoError(t, err)
	require.Zero(t, n)

	b, err := s.Recv(0)
	require.NoError(t, err)
	require.Empty(t, b)
}

func Test_Bind_NotExist(t *testing.T) {
	test.RequirePrivilege(t)

	s, err := afpacket.Open(afpacket.AF_PACKET, afpacket.SOCK_RAW, 0)
	require.NoError(t, err)
	defer s.Close()

	err = s.Bind("notexist0", afpacket.ETH_P_IP)
	require.ErrorIs(t, err, afpacket.NoSuchInterface)
	require.Equal(t, unix.ENODEV, afpacket.ErrnoOf(err))
	require.Equal(t, afpacket.StateOpen, s.State())

	_, err = afpacket.Listen("notexist0", afpacket.SOCK_RAW, 0)
	require.ErrorIs(t, err, afpacket.NoSuchInterface)
}

func Test_Open_Unsupported(t *testing.T) {
	_, err := afpacket.Open(afpacket.AF_PACKET, 0xff, 0)
	require.Error(t, err)
	require.NotZero(t, afpacket.ErrnoOf(err))
}

func Test_Scenario_Loopback(t *testing.T) {
	test.RequirePrivilege(t)

	recver, err := afpacket.Listen("lo", afpacket.SOCK_RAW, test.ExperimentalEtherType)
	require.NoError(t, err)
	defer recver.Close()
	setRecvTimeout(t, recver, time.Second*2)

	s, err := afpacket.Open(afpacket.AF_PACKET, afpacket.SOCK_RAW, 0)
	require.NoError(t, err)
	require.NoError(t, s.Bind("lo", 0))

	lo, err := s.HardwareAddr()
	require.NoError(t, err)
	frame := test.BuildEthernet(t, lo, lo, test.ExperimentalEtherType, nil)
	require.Len(t, frame, 14)

	n, err := s.Send(frame)
	require.NoError(t, err)
	require.Equal(t, 14, n)

	b := recvType(t, recver, test.ExperimentalEtherType)
	require.LessOrEqual(t, len(b), 1500)
	require.Equal(t, []byte(frame), b[:len(frame)])

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Send(frame)
	require.ErrorIs(t, err, afpacket.InvalidState)
	_, err = s.Recv(1500)
	require.ErrorIs(t, err, afpacket.InvalidState)
}

func Test_Nonblock(t *testing.T) {
	test.RequirePrivilege(t)

	s, err := afpacket.Listen("lo", afpacket.SOCK_RAW, test.ExperimentalEtherType, afpacket.Nonblock())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Recv(1500)
	require.ErrorIs(t, err, afpacket.WouldBlock)
}

func Test_Ping_Capture(t *testing.T) {
	test.RequirePrivilege(t)

	s, err := afpacket.Listen("lo", afpacket.SOCK_DGRAM, afpacket.ETH_P_IP)
	require.NoError(t, err)
	defer s.Close()
	setRecvTimeout(t, s, time.Second*2)

	test.PingOnce(t, "127.0.0.1")

	for {
		b, err := s.Recv(1536)
		require.NoError(t, err)

		// SOCK_DGRAM, link-layer header removed
		if header.IPVersion(b) != 4 {
			continue
		}
		ip := header.IPv4(b)
		if ip.TransportProtocol() == header.ICMPv4ProtocolNumber {
			require.Equal(t, "127.0.0.1", ip.DestinationAddress().String())
			break
		}
	}
}

func Test_Tap_RoundTrip(t *testing.T) {
	test.RequireTun(t)

	var (
		local  = test.RandHardware(t)
		remote = test.RandHardware(t)
	)
	ap, err := tap.Create("afptap0", local)
	require.NoError(t, err)
	defer ap.Close()

	s, err := afpacket.Listen(ap.Name(), afpacket.SOCK_RAW, test.ExperimentalEtherType)
	require.NoError(t, err)
	defer s.Close()
	setRecvTimeout(t, s, time.Second*2)

	for _, size := range []int{0, 1, 46, 512, 1500} {
		frame := test.BuildEthernet(t, remote, local, test.ExperimentalEtherType, test.RandPayload(t, size))

		// inbound: tap -> kernel -> socket
		_, err := ap.Write(frame)
		require.NoError(t, err)
		b := recvType(t, s, test.ExperimentalEtherType)
		require.Equal(t, []byte(frame), b[:len(frame)])

		// outbound: socket -> kernel -> tap
		out := test.BuildEthernet(t, local, remote, test.ExperimentalEtherType, test.RandPayload(t, size))
		var eg errgroup.Group
		eg.Go(func() error {
			var b = make([]byte, 1536)
			n, err := ap.ReadType(b, test.ExperimentalEtherType)
			if err != nil {
				return err
			}
			if !bytes.Equal(out, b[:n]) {
				return errors.Errorf("tap read %x, expect %x", b[:n], []byte(out))
			}
			return nil
		})
		n, err := s.Send(out)
		require.NoError(t, err)
		require.Equal(t, len(out), n)
		require.NoError(t, eg.Wait())
	}
}

func Test_Tap_Filter(t *testing.T) {
	test.RequireTun(t)

	var (
		local = test.RandHardware(t)
		peer1 = test.RandHardware(t)
		peer2 = test.RandHardware(t)
	)
	ap, err := tap.Create("afptap1", local)
	require.NoError(t, err)
	defer ap.Close()

	s, err := afpacket.Listen(ap.Name(), afpacket.SOCK_RAW, afpacket.ETH_P_ALL,
		afpacket.Filter(bpf.FilterFrame(test.ExperimentalEtherType, peer2, nil)...),
	)
	require.NoError(t, err)
	defer s.Close()
	setRecvTimeout(t, s, time.Second*2)

	drop := test.BuildEthernet(t, peer1, local, test.ExperimentalEtherType, []byte("drop"))
	pass := test.BuildEthernet(t, peer2, local, test.ExperimentalEtherType, []byte("pass"))
	_, err = ap.Write(drop)
	require.NoError(t, err)
	_, err = ap.Write(pass)
	require.NoError(t, err)

	// frames queued before the filter was attached are not experimental
	b := recvType(t, s, test.ExperimentalEtherType)
	require.Equal(t, []byte(pass), b[:len(pass)])
}

func Test_Tap_Dgram(t *testing.T) {
	test.RequireTun(t)

	local := test.RandHardware(t)
	ap, err := tap.Create("afptap2", local)
	require.NoError(t, err)
	defer ap.Close()

	s, err := afpacket.Listen(ap.Name(), afpacket.SOCK_DGRAM, test.ExperimentalEtherType)
	require.NoError(t, err)
	defer s.Close()
	setRecvTimeout(t, s, time.Second*2)

	payload := test.RandPayload(t, 64)
	_, err = ap.Write(test.BuildEthernet(t, test.RandHardware(t), local, test.ExperimentalEtherType, payload))
	require.NoError(t, err)

	b, err := s.Recv(1536)
	require.NoError(t, err)
	require.Equal(t, payload, b)
}

func Test_RawConn_Wait(t *testing.T) {
	test.RequirePrivilege(t)

	s, err := afpacket.Listen("lo", afpacket.SOCK_RAW, test.ExperimentalEtherType, afpacket.Nonblock())
	require.NoError(t, err)
	defer s.Close()

	sender, err := afpacket.Listen("lo", afpacket.SOCK_RAW, 0)
	require.NoError(t, err)
	defer sender.Close()
	lo, err := sender.HardwareAddr()
	require.NoError(t, err)
	frame := test.BuildEthernet(t, lo, lo, test.ExperimentalEtherType, []byte("wait"))

	raw, err := s.SyscallConn()
	require.NoError(t, err)

	var eg errgroup.Group
	eg.Go(func() error {
		time.Sleep(time.Millisecond * 50)
		_, err := sender.Send(frame)
		return err
	})

	var (
		calls int
		b     = make([]byte, 1536)
		n     int
	)
	require.NoError(t, raw.Read(func(fd uintptr) bool {
		calls++
		var err error
		n, _, err = unix.Recvfrom(int(fd), b, 0)
		return err != unix.EAGAIN
	}))
	require.NoError(t, eg.Wait())

	// blocked in poll instead of spinning on EAGAIN
	require.LessOrEqual(t, calls, 4)
	require.Equal(t, []byte(frame), b[:n])
}
