package test

import (
	"crypto/rand"
	"net"
	"testing"
	"time"

	"github.com/go-ping/ping"
	"github.com/stretchr/testify/require"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// ExperimentalEtherType is the IEEE 802 local experimental ethertype, never
// used by real traffic.
const ExperimentalEtherType = 0x88b5

func BuildEthernet(t require.TestingT, src, dst net.HardwareAddr, typ uint16, payload []byte) header.Ethernet {
	require.Len(t, src, header.EthernetAddressSize)
	require.Len(t, dst, header.EthernetAddressSize)

	var eth = make(header.Ethernet, header.EthernetMinimumSize+len(payload))
	eth.Encode(&header.EthernetFields{
		SrcAddr: tcpip.LinkAddress(src),
		DstAddr: tcpip.LinkAddress(dst),
		Type:    tcpip.NetworkProtocolNumber(typ),
	})
	copy(eth[header.EthernetMinimumSize:], payload)
	return eth
}

// RandHardware return a random locally administered unicast address
func RandHardware(t require.TestingT) net.HardwareAddr {
	var hw = make(net.HardwareAddr, 6)
	_, err := rand.Read(hw)
	require.NoError(t, err)
	hw[0] = (hw[0] | 0x02) &^ 0x01
	return hw
}

func RandPayload(t require.TestingT, n int) []byte {
	var b = make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// PingOnce send one privileged ICMP echo to dst
func PingOnce(t *testing.T, dst string) {
	pinger, err := ping.NewPinger(dst)
	require.NoError(t, err)
	pinger.SetPrivileged(true)
	pinger.Timeout = time.Millisecond * 100
	pinger.Count = 1
	require.NoError(t, pinger.Run())
}
