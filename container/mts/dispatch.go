/*
NAME
  dispatch.go

DESCRIPTION
  dispatch.go implements the Dispatcher: the top-level loop that receives
  each packet from the Synchronizer and routes it to the adaptation-field
  decoder, a Section Reassembler, or the PES Decoder, per spec §4.2. It
  also owns the global parser state described in spec §3.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package mts

import (
	"io"

	"github.com/ausocean/tsdemux/container/mts/pes"
	"github.com/ausocean/tsdemux/container/mts/psi"
	"github.com/ausocean/tsdemux/sink"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// ParserConfig is the configuration contract described in spec §6.
type ParserConfig struct {
	// ShowStreamInfo enables reporter emission and early-termination
	// gating on program/service/stream completeness.
	ShowStreamInfo bool

	// ExtractES enables ES extraction. DumpAllES, when true, lazily
	// writes every elementary PID observed; otherwise only OutputPID is
	// written.
	ExtractES bool
	DumpAllES bool
	OutputPID uint16

	// PrintPTS enables PTS/DTS line printing. PrintAllPIDs, when true,
	// prints for every PID; otherwise only PrintPID.
	PrintPTS     bool
	PrintAllPIDs bool
	PrintPID     uint16
}

// ParserState is the global parser state of spec §3, owned exclusively by
// one Dispatcher for the duration of one parse.
type ParserState struct {
	Pat         map[uint16]uint16 // program_number -> pmt_pid
	Pmts        []*psi.Pmt
	Services    map[uint16]psi.ServiceInfo
	StreamDesc  map[uint16]string
	LastPCR     uint64
	PacketIndex uint64

	patDone bool

	pmtPIDs map[uint16]bool     // derived lazily from Pat's values
	esOwner map[uint16]*psi.Pmt // elementary_pid -> owning Pmt

	pmtBufs map[uint16]*SectionBuffer
	sdtBufs map[uint16]*SectionBuffer

	config ParserConfig
	es     *sink.ESWriter
	log    logging.Logger
}

// NewParserState returns a ParserState ready to drive one parse.
func NewParserState(config ParserConfig, es *sink.ESWriter, log logging.Logger) *ParserState {
	return &ParserState{
		Pat:        make(map[uint16]uint16),
		Services:   make(map[uint16]psi.ServiceInfo),
		StreamDesc: make(map[uint16]string),
		pmtPIDs:    make(map[uint16]bool),
		esOwner:    make(map[uint16]*psi.Pmt),
		pmtBufs:    make(map[uint16]*SectionBuffer),
		sdtBufs:    make(map[uint16]*SectionBuffer),
		config:     config,
		es:         es,
		log:        log,
	}
}

// Dispatcher drives a single-threaded, cooperative parse of a packet
// stream, per spec §5: one Dispatcher, no locks, no background tasks.
type Dispatcher struct {
	sync     *Synchronizer
	state    *ParserState
	reporter *sink.Reporter
}

// NewDispatcher returns a Dispatcher reading packets from sync and driving
// state, reporting through reporter (which may be nil if show-stream-info
// and PTS printing are both disabled).
func NewDispatcher(sync *Synchronizer, state *ParserState, reporter *sink.Reporter) *Dispatcher {
	return &Dispatcher{sync: sync, state: state, reporter: reporter}
}

// Run drives the Dispatcher to completion: it pulls packets from the
// Synchronizer until EOF, the early-termination condition of spec §4.2
// fires, or the Synchronizer returns a non-EOF error, then (if
// show-stream-info is enabled) emits the final report.
func (d *Dispatcher) Run() error {
	if d.state.es != nil {
		defer d.state.es.Close()
	}

	for {
		pkt, err := d.sync.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "tsdemux: packet read failed")
		}

		d.dispatch(pkt)

		if d.state.config.ShowStreamInfo && d.earlyTerminate() {
			break
		}
	}

	if d.state.config.ShowStreamInfo && d.reporter != nil {
		d.reporter.Report(d.buildReport())
	}
	return nil
}

// dispatch processes one packet per spec §4.2 steps 1-6.
func (d *Dispatcher) dispatch(pkt *Packet) {
	if pkt.Raw[0] != SyncByte {
		return
	}
	d.state.PacketIndex++

	if pkt.PID == NullPid {
		return
	}

	offset := HeadSize
	if pkt.HasAdaptationField() {
		info := decodeAdaptationField(pkt.Raw[:], offset)
		if info.hasPCR {
			d.state.LastPCR = info.pcr
		}
		offset += 1 + info.length
	}

	if !pkt.HasPayload() || offset >= PacketSize {
		return
	}
	payload := pkt.Raw[offset:]

	switch {
	case pkt.PID == PatPid:
		d.dispatchPat(payload, pkt.PUSI)

	case pkt.PID == SdtPid:
		d.sdtBuf(pkt.PID).Write(payload, pkt.CC, pkt.PUSI)

	case d.state.pmtPIDs[pkt.PID]:
		d.pmtBuf(pkt.PID).Write(payload, pkt.CC, pkt.PUSI)

	default:
		d.dispatchElementary(pkt.PID, payload, pkt.PUSI)
	}
}

// dispatchPat handles a PAT-PID packet, per spec §4.2 step 6: PAT is
// assumed to fit in a single packet and is only decoded once.
func (d *Dispatcher) dispatchPat(payload []byte, pusi bool) {
	if d.state.patDone {
		return
	}
	if len(payload) == 0 {
		return
	}
	if pusi {
		// Only the pointer_field byte itself is skipped here, per spec
		// §4.2 and the original (offset += pusi ? 1 : 0): PAT is assumed
		// to start immediately after it, with no filler bytes.
		payload = payload[1:]
	}

	pat := psi.NewPat()
	if err := pat.Decode(payload); err != nil {
		return
	}
	d.state.patDone = true
	for programNumber, entry := range pat.Entries {
		d.state.Pat[programNumber] = entry.PID
		d.state.pmtPIDs[entry.PID] = true
	}
}

// dispatchElementary handles a packet whose PID belongs to a known PMT
// stream, per spec §4.2 step 6 final clause. Packets for unknown PIDs, or
// arriving while show-stream-info-only mode is active, are dropped.
func (d *Dispatcher) dispatchElementary(pid uint16, payload []byte, pusi bool) {
	owner, ok := d.state.esOwner[pid]
	if !ok || owner == nil {
		return
	}
	if d.state.config.ShowStreamInfo && !d.state.config.ExtractES && !d.state.config.PrintPTS {
		return
	}

	if pusi {
		h, err := pes.Decode(payload, d.state.config.PrintPTS)
		if err != nil {
			return
		}
		if d.state.config.PrintPTS && d.reporter != nil && d.printGated(pid) {
			switch h.PTSDTSFlag {
			case 0b10:
				d.reporter.PTS(pid, h.PTS)
			case 0b11:
				d.reporter.PTSDTS(pid, h.PTS, h.DTS)
			}
		}
		if h.PayloadOffset < len(payload) {
			d.writeES(pid, payload[h.PayloadOffset:])
		}
		return
	}

	d.writeES(pid, payload)
}

// printGated reports whether PTS/DTS output for pid should be emitted,
// per spec §4.7/§6's gating on print_pid / print_all_pids.
func (d *Dispatcher) printGated(pid uint16) bool {
	return d.state.config.PrintAllPIDs || pid == d.state.config.PrintPID
}

// writeES forwards payload to the ES Writer Sink for pid, if ES extraction
// is enabled for that PID, per spec §4.8.
func (d *Dispatcher) writeES(pid uint16, payload []byte) {
	if d.state.es == nil || !d.state.config.ExtractES {
		return
	}
	if !d.state.config.DumpAllES && pid != d.state.config.OutputPID {
		return
	}
	d.state.es.Write(pid, payload)
}

// pmtBuf returns (creating if necessary) the Section Reassembler for pid,
// configured with the PMT Decoder.
func (d *Dispatcher) pmtBuf(pid uint16) *SectionBuffer {
	if b, ok := d.state.pmtBufs[pid]; ok {
		return b
	}
	b := NewSectionBuffer(func(data []byte) error { return d.decodePmt(pid, data) })
	d.state.pmtBufs[pid] = b
	return b
}

// sdtBuf returns (creating if necessary) the Section Reassembler for the
// SDT PID, configured with the SDT Decoder.
func (d *Dispatcher) sdtBuf(pid uint16) *SectionBuffer {
	if b, ok := d.state.sdtBufs[pid]; ok {
		return b
	}
	b := NewSectionBuffer(func(data []byte) error { return d.decodeSdt(data) })
	d.state.sdtBufs[pid] = b
	return b
}

// decodePmt runs the PMT Decoder over a reassembled section for pid and
// folds the result into the parser state, per spec §4.5.
func (d *Dispatcher) decodePmt(pid uint16, data []byte) error {
	var existing *psi.Pmt
	if len(data) >= 5 {
		programNumber := uint16(data[3])<<8 | uint16(data[4])
		for _, p := range d.state.Pmts {
			if p.ProgramNumber == programNumber {
				existing = p
				break
			}
		}
	}

	decoded, err := psi.DecodePmt(data, existing)
	if err != nil {
		if d.state.log != nil {
			d.state.log.Debug("dropped malformed pmt section", "pid", pid, "error", err)
		}
		return err
	}
	if decoded == nil {
		return nil // frozen: a later section for a known program is ignored
	}

	d.state.Pmts = append(d.state.Pmts, decoded)
	for i := range decoded.Streams {
		s := decoded.Streams[i]
		d.state.esOwner[s.ElementaryPID] = decoded
		d.state.StreamDesc[s.ElementaryPID] = s.StreamDescription()
	}
	return nil
}

// decodeSdt runs the SDT Decoder over a reassembled section and folds new
// services into the parser state, per spec §4.6.
func (d *Dispatcher) decodeSdt(data []byte) error {
	services, err := psi.DecodeSdt(data, d.state.Services)
	if err != nil {
		if d.state.log != nil {
			d.state.log.Debug("dropped malformed sdt section", "error", err)
		}
		return err
	}
	for _, info := range services {
		d.state.Services[info.ServiceID] = info
		for _, p := range d.state.Pmts {
			if p.ProgramNumber == info.ServiceID {
				p.GotServiceInfo = true
				break
			}
		}
	}
	return nil
}

// earlyTerminate implements spec §4.2's early-termination condition for
// show-stream-info mode.
func (d *Dispatcher) earlyTerminate() bool {
	if len(d.state.Pat) == 0 {
		return false
	}
	for programNumber := range d.state.Pat {
		var found bool
		for _, p := range d.state.Pmts {
			if p.ProgramNumber == programNumber && p.GotPmt && p.GotServiceInfo {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// buildReport assembles the final program/service/stream enumeration for
// the Reporter, per spec §4.9.
func (d *Dispatcher) buildReport() []sink.ProgramReport {
	out := make([]sink.ProgramReport, 0, len(d.state.Pmts))
	for _, p := range d.state.Pmts {
		r := sink.ProgramReport{ProgramNumber: p.ProgramNumber}
		if info, ok := d.state.Services[p.ProgramNumber]; ok {
			r.HasService = true
			r.ProviderName = info.ProviderName
			r.ServiceName = info.ServiceName
		}
		for _, s := range p.Streams {
			r.Streams = append(r.Streams, sink.StreamReport{
				PID:         s.ElementaryPID,
				Description: s.StreamDescription(),
			})
		}
		out = append(out, r)
	}
	return out
}
