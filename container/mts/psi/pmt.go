/*
NAME
  pmt.go

DESCRIPTION
  pmt.go decodes Program Map Table sections, per spec §4.5.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package psi

import (
	"fmt"

	"github.com/pkg/errors"
)

const pmtTableID = 0x02

// PmtStream is a single elementary stream listed in a Pmt, per spec §3
// PmtStream.
type PmtStream struct {
	StreamType    uint8
	ElementaryPID uint16
	EsInfo        []byte
}

// Pmt is a decoded Program Map Table entry for one program, per spec §3 Pmt.
// Once GotPmt is true the entry is frozen: later PMT sections for the same
// ProgramNumber are dropped rather than overwriting it.
type Pmt struct {
	ProgramNumber uint16
	PcrPid        uint16
	Version       uint8
	Streams       []PmtStream

	GotPmt         bool
	GotServiceInfo bool
}

// ErrShortPmt is returned when a candidate PMT section is too short to
// contain a valid header.
var ErrShortPmt = errors.New("psi: short pmt section")

// ErrNotPmt is returned when a candidate section's table_id is not 0x02.
var ErrNotPmt = errors.New("psi: not a pmt section")

// DecodePmt parses a reassembled PMT section, per spec §4.5. If existing is
// non-nil and already has GotPmt == true, the section is dropped (nil, nil
// is returned) rather than re-decoded, per the frozen-Pmt invariant. On a
// fresh decode it returns the new Pmt, ready to be appended to the parser's
// pmts list.
func DecodePmt(data []byte, existing *Pmt) (*Pmt, error) {
	if len(data) < 13 {
		return nil, ErrShortPmt
	}
	if data[0] != pmtTableID {
		return nil, ErrNotPmt
	}
	if existing != nil && existing.GotPmt {
		return nil, nil
	}

	sectionLength := int(data[1]&0x0F)<<8 | int(data[2])
	if sectionLength+3 > len(data) {
		return nil, ErrShortPmt
	}
	programNumber := uint16(data[3])<<8 | uint16(data[4])
	version := (data[5] >> 1) & 0x1F
	pcrPid := uint16(data[8]&0x1F)<<8 | uint16(data[9])
	programInfoLength := int(data[10]&0x0F)<<8 | int(data[11])

	end := sectionLength + 3 - 4
	if end > len(data) {
		end = len(data)
	}

	p := &Pmt{
		ProgramNumber: programNumber,
		PcrPid:        pcrPid,
		Version:       version,
		GotPmt:        true,
	}

	offset := 12 + programInfoLength
	for offset+5 <= end {
		streamType := data[offset]
		elementaryPid := uint16(data[offset+1]&0x1F)<<8 | uint16(data[offset+2])
		esInfoLength := int(data[offset+3]&0x0F)<<8 | int(data[offset+4])
		offset += 5

		if offset+esInfoLength > end {
			break
		}
		esInfo := data[offset : offset+esInfoLength]
		offset += esInfoLength

		p.Streams = append(p.Streams, PmtStream{
			StreamType:    streamType,
			ElementaryPID: elementaryPid,
			EsInfo:        esInfo,
		})
	}

	return p, nil
}

// StreamDescription returns the human-readable description of s per the
// stream_type table in spec §4.5, resolving stream_type 0x06 (Private PES)
// via its descriptor loop.
func (s PmtStream) StreamDescription() string {
	switch s.StreamType {
	case 0x01, 0x02:
		return "MPEG-2 Video"
	case 0x03, 0x04:
		return "MPEG-2 Audio"
	case 0x05:
		return "Private Sections"
	case 0x06:
		return privatePESDescription(s.EsInfo)
	case 0x0F:
		return "AAC Audio"
	case 0x10:
		return "MPEG-4 Video"
	case 0x11:
		return "AAC LATM Audio"
	case 0x1B:
		return "H.264 Video"
	case 0x1C:
		return "MPEG4 Audio"
	case 0x20:
		return "MVC Video"
	case 0x21:
		return "JPEG Video"
	case 0x24:
		return "H.265 Video"
	case 0x33:
		return "VVC Video"
	case 0x42:
		return "AVS Video"
	case 0x81:
		return "AC3"
	case 0x82:
		return "DTS"
	case 0x83:
		return "E-AC-3"
	case 0x84:
		return "DTS-HD"
	case 0x87:
		return "TrueHD"
	case 0x88:
		return "AC4"
	case 0xD2:
		return "AVS2"
	case 0xD4:
		return "AVS3"
	case 0xEA:
		return "VC-1 Video"
	default:
		return fmt.Sprintf("Unknown(type 0x%02X)", s.StreamType)
	}
}
