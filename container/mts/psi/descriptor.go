/*
NAME
  descriptor.go

DESCRIPTION
  descriptor.go decodes the descriptor loops embedded in PMT streams and SDT
  services, per spec §4.5/§4.6.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package psi

// Descriptor tags recognized by the PMT stream-type-0x06 override and by the
// service descriptor, per spec §4.5/§4.6.
const (
	descriptorTagRegistration = 0x05
	descriptorTagServiceDesc  = 0x48
	descriptorTagSubtitle     = 0x59
	descriptorTagAC3          = 0x6A
	descriptorTagDTS          = 0x73
)

// privatePESDescription walks a stream_type==0x06 descriptor loop and
// returns its StreamDescription override, per spec §4.5. The last
// recognized tag wins; an unrecognized-only loop yields "Unknown"; an empty
// loop yields "Private PES".
func privatePESDescription(esInfo []byte) string {
	if len(esInfo) == 0 {
		return "Private PES"
	}

	desc := ""
	for pos := 0; pos+2 <= len(esInfo); {
		tag := esInfo[pos]
		length := int(esInfo[pos+1])
		pos += 2
		if pos+length > len(esInfo) {
			break
		}
		body := esInfo[pos : pos+length]
		pos += length

		switch tag {
		case descriptorTagAC3:
			desc = "AC3 Audio"
		case descriptorTagDTS:
			desc = "DTS Audio"
		case descriptorTagSubtitle:
			desc = "Subtitles"
		case descriptorTagRegistration:
			if length >= 4 {
				desc = "Registration: " + string(body[:4])
			}
		}
	}
	if desc == "" {
		return "Unknown"
	}
	return desc
}

// serviceDescriptor is the decoded content of a 0x48 service descriptor, per
// spec §4.6.
type serviceDescriptor struct {
	ProviderName string
	ServiceName  string
}

// decodeServiceDescriptor parses a 0x48 service descriptor body (the bytes
// following the tag and length octets), per spec §4.6: one service_type
// byte, then a length-prefixed provider_name, then a length-prefixed
// service_name.
func decodeServiceDescriptor(body []byte) (serviceDescriptor, bool) {
	if len(body) < 2 {
		return serviceDescriptor{}, false
	}
	pos := 1 // skip service_type
	provLen := int(body[pos])
	pos++
	if pos+provLen > len(body) {
		return serviceDescriptor{}, false
	}
	provider := string(body[pos : pos+provLen])
	pos += provLen

	if pos >= len(body) {
		return serviceDescriptor{}, false
	}
	nameLen := int(body[pos])
	pos++
	if pos+nameLen > len(body) {
		return serviceDescriptor{}, false
	}
	name := string(body[pos : pos+nameLen])

	return serviceDescriptor{ProviderName: provider, ServiceName: name}, true
}
