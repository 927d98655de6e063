package bpf

import (
	"encoding/binary"
	"net"
	"net/netip"

	"golang.org/x/net/bpf"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// offsets in an ethernet frame, as delivered by a SOCK_RAW socket
const (
	dstHwOffset = 0
	srcHwOffset = header.EthernetAddressSize
	typeOffset  = 2 * header.EthernetAddressSize
)

// offsets in an ipv4 header
const (
	srcIPOffset = 12
	dstIPOffset = srcIPOffset + header.IPv4AddressSize
)

const (
	drop   = 0
	accept = 0xffff
)

// FilterEtherType accept frames with ethernet type typ
func FilterEtherType(typ uint16) []bpf.Instruction {
	return FilterFrame(typ, nil, nil)
}

// FilterFrame accept ethernet frames that match typ and the source/destination
// hardware address, zero typ or nil address means any.
func FilterFrame(typ uint16, src, dst net.HardwareAddr) []bpf.Instruction {
	var ins []bpf.Instruction
	if typ != 0 {
		ins = append(ins,
			bpf.LoadAbsolute{Off: typeOffset, Size: 2},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(typ), SkipTrue: 1},
			bpf.RetConstant{Val: drop},
		)
	}
	if len(src) == header.EthernetAddressSize {
		ins = append(ins, filterHardware(srcHwOffset, src)...)
	}
	if len(dst) == header.EthernetAddressSize {
		ins = append(ins, filterHardware(dstHwOffset, dst)...)
	}
	return append(ins, bpf.RetConstant{Val: accept})
}

func filterHardware(off uint32, hw net.HardwareAddr) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: off, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: binary.BigEndian.Uint32(hw[0:4]), SkipTrue: 1},
		bpf.RetConstant{Val: drop},
		bpf.LoadAbsolute{Off: off + 4, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(binary.BigEndian.Uint16(hw[4:6])), SkipTrue: 1},
		bpf.RetConstant{Val: drop},
	}
}

// FilterIPv4 accept ipv4 packets between src and dst, invalid address means
// any. linkHdr is the bytes before ip header: header.EthernetMinimumSize for
// SOCK_RAW socket, 0 for SOCK_DGRAM.
func FilterIPv4(linkHdr uint32, src, dst netip.Addr) []bpf.Instruction {
	if (src.IsValid() && !src.Is4()) || (dst.IsValid() && !dst.Is4()) {
		return []bpf.Instruction{bpf.RetConstant{Val: drop}}
	}

	var ins = []bpf.Instruction{
		// ip version
		bpf.LoadAbsolute{Off: linkHdr, Size: 1},
		bpf.ALUOpConstant{Op: bpf.ALUOpShiftRight, Val: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 4, SkipTrue: 1},
		bpf.RetConstant{Val: drop},
	}
	if src.IsValid() {
		ins = append(ins,
			bpf.LoadAbsolute{Off: linkHdr + srcIPOffset, Size: 4},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: binary.BigEndian.Uint32(src.AsSlice()), SkipTrue: 1},
			bpf.RetConstant{Val: drop},
		)
	}
	if dst.IsValid() {
		ins = append(ins,
			bpf.LoadAbsolute{Off: linkHdr + dstIPOffset, Size: 4},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: binary.BigEndian.Uint32(dst.AsSlice()), SkipTrue: 1},
			bpf.RetConstant{Val: drop},
		)
	}
	return append(ins, bpf.RetConstant{Val: accept})
}
