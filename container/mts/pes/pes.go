/*
NAME
  pes.go

DESCRIPTION
  pes.go decodes Packetized Elementary Stream (PES) headers, extracting
  PTS/DTS when present and the elementary-stream payload, per spec §4.7.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

// Package pes decodes PES packet headers.
package pes

import (
	"errors"
)

/*
The below data struct encapsulates the fields of a PES packet header that
this package decodes. Below is the formatting of a PES packet for reference!

============================================================================
| octet no | bit 0 | bit 1 | bit 2 | bit 3 | bit 4 | bit 5 | bit 6 | bit 7 |
============================================================================
| octet 0-2| packet_start_code_prefix (0x000001)                          |
----------------------------------------------------------------------------
| octet 3  | stream_id                                                    |
----------------------------------------------------------------------------
| octet 4-5| PES packet length                                            |
----------------------------------------------------------------------------
| octet 6  | 0x2           |  SC           | Prior | DAI   | Copyr | Copy  |
----------------------------------------------------------------------------
| octet 7  | PTS_DTS_flags | ESCRF | ESRF  | DSMTMF| ACIF  | CRCF  | EF    |
----------------------------------------------------------------------------
| octet 8  | PES header length                                            |
----------------------------------------------------------------------------
| optional | optional fields (determined by flags above)                  |
----------------------------------------------------------------------------
*/

// Stream IDs excluded from PTS/DTS extraction per spec §4.7: these carry no
// PES optional header (program stream map, private stream 2, ECM/EMM,
// program stream directory, DSM-CC, ITU-T H.222.1 type E).
const (
	StreamIDProgramStreamMap = 0xBC
	StreamIDPrivateStream2   = 0xBF
	StreamIDECM              = 0xF0
	StreamIDEMM              = 0xF1
	StreamIDProgramDirectory = 0xFF
	StreamIDDSMCC            = 0xF2
	StreamIDH2221TypeE       = 0xF8
)

// excludedFromPTS is the stream_id set that never carries an optional PES
// header with PTS/DTS fields.
var excludedFromPTS = map[byte]bool{
	StreamIDProgramStreamMap: true,
	StreamIDPrivateStream2:   true,
	StreamIDECM:              true,
	StreamIDEMM:              true,
	StreamIDProgramDirectory: true,
	StreamIDDSMCC:            true,
	StreamIDH2221TypeE:       true,
}

// ExcludedFromPTS reports whether streamID never carries PTS/DTS, per
// spec §4.7.
func ExcludedFromPTS(streamID byte) bool { return excludedFromPTS[streamID] }

// Header is a decoded PES packet header.
type Header struct {
	StreamID      byte
	PacketLength  uint16
	PTSDTSFlag    byte // 0b10 = PTS only, 0b11 = PTS and DTS
	PTS           uint64
	DTS           uint64
	HeaderLength  byte
	PayloadOffset int // offset into the input of the ES payload
}

// ErrInvalidPrefix is returned when the packet_start_code_prefix is not
// 0x000001.
var ErrInvalidPrefix = errors.New("pes: invalid packet_start_code_prefix")

// ErrShortHeader is returned when the input is too short to contain a
// minimal PES header, or the declared header length overruns it.
var ErrShortHeader = errors.New("pes: short header")

// Decode parses a PES header from payload, which begins at the PES start
// code. It validates the prefix and the declared optional-header length,
// per spec §4.7. When ptsEnabled is false, the PTS/DTS fields are not
// examined (but header length validation still occurs).
func Decode(payload []byte, ptsEnabled bool) (*Header, error) {
	if len(payload) < 9 {
		return nil, ErrShortHeader
	}
	prefix := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
	if prefix != 0x000001 {
		return nil, ErrInvalidPrefix
	}

	h := &Header{
		StreamID:     payload[3],
		PacketLength: uint16(payload[4])<<8 | uint16(payload[5]),
		HeaderLength: payload[8],
	}

	if len(payload) < 9+int(h.HeaderLength) {
		return nil, ErrShortHeader
	}
	h.PayloadOffset = 9 + int(h.HeaderLength)

	if ptsEnabled && !ExcludedFromPTS(h.StreamID) {
		flag := (payload[7] >> 6) & 0x03
		h.PTSDTSFlag = flag

		switch flag {
		case 0b10:
			if len(payload) >= 14 {
				h.PTS = extractTimestamp(payload[9:14])
			}
		case 0b11:
			if len(payload) >= 19 {
				h.PTS = extractTimestamp(payload[9:14])
				h.DTS = extractTimestamp(payload[14:19])
			}
		}
	}

	return h, nil
}

// extractTimestamp decodes a 33-bit PTS or DTS from its standard 5-byte
// encoding, per spec §4.7.
func extractTimestamp(b []byte) uint64 {
	return (uint64(b[0]&0x0E) << 29) | (uint64(b[1]) << 22) |
		(uint64(b[2]&0xFE) << 14) | (uint64(b[3]) << 7) | (uint64(b[4]) >> 1)
}
