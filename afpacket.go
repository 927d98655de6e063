// Package afpacket is a minimal handle over a linux AF_PACKET socket bound to
// one network interface.
//
// https://man7.org/linux/man-pages/man7/packet.7.html
package afpacket

const Version = "0.1.0"

// linux values, exported on every platform so callers can build arguments
// without importing x/sys/unix.
const (
	AF_PACKET = 17

	SOCK_DGRAM = 2
	SOCK_RAW   = 3
)

// ethernet protocol numbers, host order
const (
	ETH_P_ALL  uint16 = 0x0003
	ETH_P_IP   uint16 = 0x0800
	ETH_P_ARP  uint16 = 0x0806
	ETH_P_IPV6 uint16 = 0x86DD
)
