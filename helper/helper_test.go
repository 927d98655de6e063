package helper_test

import (
	"encoding/binary"
	"testing"

	"github.com/lysShub/afpacket/helper"
	"github.com/stretchr/testify/require"
)

func Test_Htons(t *testing.T) {
	for _, proto := range []uint16{0, 0x0003, 0x0800, 0x0806, 0x86dd, 0xffff} {
		n := helper.Htons(proto)

		// in memory, network order is big endian
		require.Equal(t,
			binary.BigEndian.AppendUint16(nil, proto),
			binary.NativeEndian.AppendUint16(nil, n),
		)
		require.Equal(t, proto, helper.Ntohs(n))
	}
}
