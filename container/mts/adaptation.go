/*
NAME
  adaptation.go

DESCRIPTION
  adaptation.go decodes the MPEG-TS adaptation field far enough to extract
  the Program Clock Reference (PCR), per spec §4.2 step 5.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package mts

// Consts relating to the adaptation field layout.
const (
	adaptationLenIdx   = HeadSize     // index of adaptation_field_length
	adaptationFlagsIdx = HeadSize + 1 // index of the flags octet
	pcrFlagMask        = 0x10
	minPCRFieldLen     = 6 // 6 bytes of PCR following the flags octet
)

// adaptationInfo is the subset of adaptation-field content the Dispatcher
// cares about: its total length (so the payload offset can be advanced) and
// an optional PCR.
type adaptationInfo struct {
	length int // value of adaptation_field_length
	hasPCR bool
	pcr    uint64 // pcr_base*300 + pcr_extension
}

// decodeAdaptationField parses the adaptation field starting at pkt[offset],
// per spec §4.2 step 5. offset must point at the adaptation_field_length
// byte (i.e. HeadSize). The returned length is the adaptation_field_length
// value itself; the caller advances past the field by 1 + length.
func decodeAdaptationField(pkt []byte, offset int) adaptationInfo {
	if offset >= len(pkt) {
		return adaptationInfo{}
	}
	afl := int(pkt[offset])
	info := adaptationInfo{length: afl}
	if afl == 0 {
		return info
	}
	if offset+1 >= len(pkt) {
		return info
	}
	flags := pkt[offset+1]
	if flags&pcrFlagMask == 0 {
		return info
	}
	if len(pkt)-offset-2 < minPCRFieldLen {
		return info
	}
	pcrBytes := pkt[offset+2 : offset+2+minPCRFieldLen]
	base := uint64(pcrBytes[0])<<25 | uint64(pcrBytes[1])<<17 | uint64(pcrBytes[2])<<9 |
		uint64(pcrBytes[3])<<1 | uint64(pcrBytes[4])>>7
	ext := (uint64(pcrBytes[4])&0x01)<<8 | uint64(pcrBytes[5])
	info.hasPCR = true
	info.pcr = base*300 + ext
	return info
}
