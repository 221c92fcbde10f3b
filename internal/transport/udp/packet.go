// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"fmt"
	"math"

	"lipsync/internal/analysis"
)

/*
Estimate packet (big-endian, 22 bytes):

	+----------+-----------+-----+-------+--------+---------+
	| seq      | timestamp | raw | vowel | amount | level   |
	| uint32   | int64     | i8  | i8    | f32    | f32     |
	+----------+-----------+-----+-------+--------+---------+
	  0          4           12    13      14       18

The timestamp is Unix nanoseconds. raw and vowel are -1 for no vowel.
*/

// PacketSize is the encoded length of a Packet.
const PacketSize = 22

// Packet is one encoded estimate.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Raw       analysis.Vowel
	Vowel     analysis.Vowel
	Amount    float32
	Level     float32
}

// AppendPacket appends the encoding of p to dst.
func AppendPacket(dst []byte, p Packet) []byte {
	dst = binary.BigEndian.AppendUint32(dst, p.Seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(p.Timestamp))
	dst = append(dst, byte(p.Raw), byte(p.Vowel))
	dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(p.Amount))
	dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(p.Level))
	return dst
}

// DecodePacket parses a datagram produced by AppendPacket.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) != PacketSize {
		return Packet{}, fmt.Errorf("udp packet: got %d bytes, want %d", len(b), PacketSize)
	}
	return Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
		Raw:       analysis.Vowel(int8(b[12])),
		Vowel:     analysis.Vowel(int8(b[13])),
		Amount:    math.Float32frombits(binary.BigEndian.Uint32(b[14:18])),
		Level:     math.Float32frombits(binary.BigEndian.Uint32(b[18:22])),
	}, nil
}
