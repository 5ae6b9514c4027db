/*
NAME
  sdt.go

DESCRIPTION
  sdt.go decodes Service Description Table sections, per spec §4.6.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package psi

import "github.com/pkg/errors"

// sdtTableIDs are the table_id values recognized as SDT sections: the
// actual transport stream's SDT (0x42) and the SDT of other transport
// streams (0x46).
var sdtTableIDs = map[byte]bool{0x42: true, 0x46: true}

// ServiceInfo is a decoded SDT service entry, per spec §3 ServiceInfo.
// Strings hold raw descriptor bytes; character-set interpretation is out of
// scope.
type ServiceInfo struct {
	ServiceID    uint16
	ServiceName  string
	ProviderName string
}

// ErrShortSdt is returned when a candidate SDT section is too short to
// contain a valid header.
var ErrShortSdt = errors.New("psi: short sdt section")

// ErrNotSdt is returned when a candidate section's table_id is neither
// 0x42 nor 0x46.
var ErrNotSdt = errors.New("psi: not a sdt section")

// DecodeSdt parses a reassembled SDT section, per spec §4.6, returning the
// ServiceInfo for every service not already present in known. Services
// already in known are left untouched (their descriptor loop is skipped
// entirely, matching the reference behavior of never re-parsing a known
// service).
func DecodeSdt(data []byte, known map[uint16]ServiceInfo) ([]ServiceInfo, error) {
	if len(data) < 11 {
		return nil, ErrShortSdt
	}
	if !sdtTableIDs[data[0]] {
		return nil, ErrNotSdt
	}

	sectionLength := int(data[1]&0x0F)<<8 | int(data[2])
	if sectionLength+3 > len(data) {
		return nil, ErrShortSdt
	}
	end := sectionLength + 3 - 4
	if end > len(data) {
		end = len(data)
	}

	var out []ServiceInfo
	offset := 11
	for offset+5 <= end {
		serviceID := uint16(data[offset])<<8 | uint16(data[offset+1])
		offset += 3 // service_id (2) + reserved/EIT-flags byte (1)
		descLoopLength := int(data[offset]&0x0F)<<8 | int(data[offset+1])
		offset += 2

		if offset+descLoopLength > end {
			break
		}
		descLoop := data[offset : offset+descLoopLength]
		offset += descLoopLength

		if _, ok := known[serviceID]; ok {
			continue
		}

		// Record the service unconditionally, per spec §4.6 and the
		// original (TsParser.cpp: mServiceInfos[service_id] = {...}),
		// even when no 0x48 descriptor is present to name it.
		out = append(out, decodeServiceDescriptorLoop(serviceID, descLoop))
	}

	return out, nil
}

// decodeServiceDescriptorLoop walks a service's descriptor loop looking for
// the 0x48 service descriptor, per spec §4.6. ServiceName/ProviderName are
// left empty if no such descriptor is found.
func decodeServiceDescriptorLoop(serviceID uint16, descLoop []byte) ServiceInfo {
	info := ServiceInfo{ServiceID: serviceID}
	for pos := 0; pos+2 <= len(descLoop); {
		tag := descLoop[pos]
		length := int(descLoop[pos+1])
		pos += 2
		if pos+length > len(descLoop) {
			break
		}
		body := descLoop[pos : pos+length]
		pos += length

		if tag != descriptorTagServiceDesc {
			continue
		}
		sd, ok := decodeServiceDescriptor(body)
		if !ok {
			continue
		}
		info.ServiceName = sd.ServiceName
		info.ProviderName = sd.ProviderName
		break
	}
	return info
}
