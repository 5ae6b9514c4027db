/*
NAME
  adaptation_test.go

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package mts

import "testing"

// pcrField encodes pcr_base (33 bits) and pcr_extension (9 bits) into the
// standard 6-byte PCR field layout.
func pcrField(base uint64, ext uint16) []byte {
	b := make([]byte, 6)
	b[0] = byte(base >> 25)
	b[1] = byte(base >> 17)
	b[2] = byte(base >> 9)
	b[3] = byte(base >> 1)
	b[4] = byte(base<<7) | 0x7E | byte(ext>>8&0x01)
	b[5] = byte(ext)
	return b
}

func TestDecodeAdaptationFieldPCR(t *testing.T) {
	pcr := pcrField(90000, 0)

	pkt := make([]byte, PacketSize)
	pkt[HeadSize] = byte(1 + len(pcr)) // adaptation_field_length
	pkt[HeadSize+1] = pcrFlagMask
	copy(pkt[HeadSize+2:], pcr)

	info := decodeAdaptationField(pkt, HeadSize)
	if !info.hasPCR {
		t.Fatal("hasPCR = false, want true")
	}
	if info.pcr != 27000000 {
		t.Errorf("pcr = %d, want 27000000", info.pcr)
	}
	if info.length != 1+len(pcr) {
		t.Errorf("length = %d, want %d", info.length, 1+len(pcr))
	}
}

func TestDecodeAdaptationFieldNoPCR(t *testing.T) {
	pkt := make([]byte, PacketSize)
	pkt[HeadSize] = 1 // adaptation_field_length = 1 (flags byte only)
	pkt[HeadSize+1] = 0x00 // PCR_flag not set

	info := decodeAdaptationField(pkt, HeadSize)
	if info.hasPCR {
		t.Error("hasPCR = true, want false")
	}
	if info.length != 1 {
		t.Errorf("length = %d, want 1", info.length)
	}
}

func TestDecodeAdaptationFieldZeroLength(t *testing.T) {
	pkt := make([]byte, PacketSize)
	pkt[HeadSize] = 0

	info := decodeAdaptationField(pkt, HeadSize)
	if info.hasPCR {
		t.Error("hasPCR = true, want false")
	}
	if info.length != 0 {
		t.Errorf("length = %d, want 0", info.length)
	}
}
