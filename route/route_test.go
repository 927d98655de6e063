package route_test

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/lysShub/afpacket/route"
	"github.com/stretchr/testify/require"
)

func Test_Match(t *testing.T) {
	var tab = route.Table{
		{Dest: netip.MustParsePrefix("0.0.0.0/0"), Next: netip.MustParseAddr("10.0.0.1"), Interface: 2, Metric: 100},
		{Dest: netip.MustParsePrefix("0.0.0.0/0"), Next: netip.MustParseAddr("10.1.0.1"), Interface: 3, Metric: 50},
		{Dest: netip.MustParsePrefix("10.0.0.0/24"), Interface: 2, Addr: netip.MustParseAddr("10.0.0.7")},
		{Dest: netip.MustParsePrefix("10.0.0.0/16"), Interface: 4},
		{Dest: netip.MustParsePrefix("127.0.0.0/8"), Interface: 1},
		{Dest: netip.MustParsePrefix("192.168.0.0/16")}, // invalid, no interface
	}
	tab.Sort()

	var suits = []struct {
		dst   string
		iface uint32
	}{
		{"10.0.0.9", 2},
		{"10.0.9.9", 4},
		{"127.0.0.1", 1},
		{"8.8.8.8", 3}, // lower metric default
		{"192.168.1.1", 3},
	}
	for _, e := range suits {
		entry := tab.Match(netip.MustParseAddr(e.dst))
		require.True(t, entry.Valid(), e.dst)
		require.Equal(t, e.iface, entry.Interface, e.dst)
	}

	require.False(t, route.Table{}.Match(netip.MustParseAddr("1.1.1.1")).Valid())
}

func Test_String(t *testing.T) {
	e := route.Entry{
		Dest:      netip.MustParsePrefix("10.0.0.0/24"),
		Interface: 2,
		Addr:      netip.MustParseAddr("10.0.0.7"),
		Metric:    100,
	}
	lines := strings.Split(e.String(), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "dest"))
	require.Equal(t, []string{"10.0.0.0/24", "2(10.0.0.7)", "100"}, strings.Fields(lines[1]))

	tab := route.Table{e, e}
	require.Len(t, strings.Split(tab.String(), "\n"), 3)
}
