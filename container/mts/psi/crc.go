/*
NAME
  crc.go
DESCRIPTION
  crc.go computes and checks the CRC-32/MPEG-2 checksum of PSI sections.

AUTHOR
	Dan Kortschak <dan@ausocean.org>
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package psi

import (
	"encoding/binary"
	"hash/crc32"
	"math/bits"
)

// AddCRC returns a copy of out, which begins with the pointer field, with a
// 4-byte CRC_32 appended that is computed over out[1:].
func AddCRC(out []byte) []byte {
	t := make([]byte, len(out)+4)
	copy(t, out)
	UpdateCrc(t[1:])
	return t
}

// ValidCRC reports whether the last four bytes of section (the CRC_32 field)
// match the CRC computed over section[:len(section)-4]. Table decoders may
// call this to validate a reassembled section before decoding it further;
// per spec §4.4-§4.6 this check is optional and malformed/mismatched
// sections are otherwise handled the same as any other decode failure.
func ValidCRC(section []byte) bool {
	if len(section) < 4 {
		return false
	}
	want := binary.BigEndian.Uint32(section[len(section)-4:])
	got := crc32_Update(0xffffffff, crc32_MakeTable(bits.Reverse32(crc32.IEEE)), section[:len(section)-4])
	return got == want
}

// UpdateCrc computes the CRC over all but the last four bytes of b and writes
// the checksum into those last four bytes.
func UpdateCrc(b []byte) {
	crc32 := crc32_Update(0xffffffff, crc32_MakeTable(bits.Reverse32(crc32.IEEE)), b[:len(b)-4])
	binary.BigEndian.PutUint32(b[len(b)-4:], crc32)
}

func crc32_MakeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

func crc32_Update(crc uint32, tab *crc32.Table, p []byte) uint32 {
	for _, v := range p {
		crc = tab[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}
