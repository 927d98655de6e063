package helper

import (
	"encoding/binary"
)

// Htons convert host byte order to network byte order, akin to htons(3)
func Htons(b uint16) uint16 {
	return binary.BigEndian.Uint16(
		binary.NativeEndian.AppendUint16(nil, b),
	)
}

// Ntohs convert network byte order to host byte order, akin to ntohs(3)
func Ntohs(b uint16) uint16 {
	return binary.NativeEndian.Uint16(
		binary.BigEndian.AppendUint16(nil, b),
	)
}
