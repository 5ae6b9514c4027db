/*
NAME
  pat.go

DESCRIPTION
  pat.go decodes Program Association Table sections, per spec §4.4.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package psi

import (
	"github.com/pkg/errors"
)

const patTableID = 0x00

// PatEntry is a single program_number/PID association carried in a PAT, per
// spec §3 PatEntry.
type PatEntry struct {
	ProgramNumber uint16
	PID           uint16 // network_PID when ProgramNumber == 0, else program_map_PID
}

// Pat is a decoded Program Association Table: the set of program_number to
// PMT-PID associations currently known, per spec §3/§4.4. Keyed by
// ProgramNumber so repeated PAT sections simply upsert entries.
type Pat struct {
	Entries map[uint16]PatEntry
}

// NewPat returns an empty Pat.
func NewPat() *Pat {
	return &Pat{Entries: make(map[uint16]PatEntry)}
}

// ErrShortPat is returned when a candidate PAT section is too short to
// contain a valid header.
var ErrShortPat = errors.New("psi: short pat section")

// ErrNotPat is returned when a candidate section's table_id is not 0x00.
var ErrNotPat = errors.New("psi: not a pat section")

// Decode parses a reassembled PAT section and upserts its program
// associations into p, per spec §4.4:
//
//	Validate len(data) >= 12 and data[0] == 0x00 (table_id).
//	section_length is the low 12 bits of data[1:3]; require
//	section_length + 3 <= len(data).
//	Program entries begin at byte 8 and run for section_length - 9 bytes,
//	in 4-byte units: 16-bit program_number, then 13 low bits of the
//	following 16 bits as the PID.
//	Entries with program_number == 0 (the network PID entry) are skipped.
func (p *Pat) Decode(data []byte) error {
	if len(data) < 12 {
		return ErrShortPat
	}
	if data[0] != patTableID {
		return ErrNotPat
	}
	sectionLength := int(data[1]&0x0F)<<8 | int(data[2])
	if sectionLength+3 > len(data) {
		return ErrShortPat
	}

	end := 3 + sectionLength - 4 // exclude the trailing CRC_32
	if end > len(data) {
		end = len(data)
	}
	for i := 8; i+4 <= end; i += 4 {
		programNumber := uint16(data[i])<<8 | uint16(data[i+1])
		pid := uint16(data[i+2]&0x1F)<<8 | uint16(data[i+3])
		if programNumber == 0 {
			continue
		}
		p.Entries[programNumber] = PatEntry{ProgramNumber: programNumber, PID: pid}
	}
	return nil
}
