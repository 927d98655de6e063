//go:build linux
// +build linux

package route

import (
	"net/netip"
	"syscall"
	"unsafe"

	"github.com/lysShub/afpacket/helper"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func (e Entry) Name() (string, error) {
	return helper.IoctlGifname(int(e.Interface))
}

// GetTable get ipv4 unicast and local route entries of every routing
// table, sorted for Match.
func GetTable() (Table, error) {
	tab, err := syscall.NetlinkRIB(unix.RTM_GETROUTE, unix.AF_INET)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	msgs, err := syscall.ParseNetlinkMessage(tab)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var es Table
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch m.Header.Type {
		case unix.RTM_NEWROUTE:
			if len(m.Data) < unix.SizeofRtMsg {
				return nil, errors.Errorf("short rtmsg %d", len(m.Data))
			}
			rt := (*unix.RtMsg)(unsafe.Pointer(unsafe.SliceData(m.Data)))
			if rt.Type != unix.RTN_UNICAST && rt.Type != unix.RTN_LOCAL {
				continue
			}

			attrs, err := syscall.ParseNetlinkRouteAttr(&m)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			es = append(es, collectEntry(attrs, rt.Dst_len))
		case unix.NLMSG_DONE:
			i = len(msgs) // break
		case unix.NLMSG_NOOP:
			continue
		case unix.NLMSG_ERROR:
			rt := (*unix.NlMsgerr)(unsafe.Pointer(unsafe.SliceData(m.Data)))
			return nil, errors.WithStack(unix.Errno(-rt.Error))
		default:
			return nil, errors.Errorf("unexpect nlmsghdr type 0x%02x", m.Header.Type)
		}
	}
	es.Sort()
	return es, nil
}

func collectEntry(attrs []syscall.NetlinkRouteAttr, ones uint8) Entry {
	var e Entry
	for _, attr := range attrs {
		switch attr.Attr.Type {
		case unix.RTA_GATEWAY:
			e.Next, _ = netip.AddrFromSlice(attr.Value)
		case unix.RTA_DST:
			addr, ok := netip.AddrFromSlice(attr.Value)
			if ok {
				e.Dest = netip.PrefixFrom(addr, int(ones))
			}
		case unix.RTA_PREFSRC:
			e.Addr, _ = netip.AddrFromSlice(attr.Value)
		case unix.RTA_OIF:
			if len(attr.Value) >= 4 {
				e.Interface = *(*uint32)(unsafe.Pointer(unsafe.SliceData(attr.Value)))
			}
		case unix.RTA_PRIORITY:
			if len(attr.Value) >= 4 {
				e.Metric = *(*uint32)(unsafe.Pointer(unsafe.SliceData(attr.Value)))
			}
		}
	}

	// default route carries no RTA_DST
	if !e.Dest.IsValid() {
		e.Dest = netip.PrefixFrom(netip.IPv4Unspecified(), int(ones))
	}
	return e
}
