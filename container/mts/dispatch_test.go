/*
NAME
  dispatch_test.go

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package mts

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ausocean/tsdemux/sink"
	"github.com/ausocean/utils/logging"
)

// buildPacket assembles a 188-byte TS packet with the given pid/pusi/cc and
// payload, right-padded with zero stuffing bytes.
func buildPacket(pid uint16, pusi bool, cc byte, payload []byte) []byte {
	p := make([]byte, PacketSize)
	p[0] = SyncByte
	p[1] = byte(pid >> 8 & 0x1F)
	if pusi {
		p[1] |= 0x40
	}
	p[2] = byte(pid)
	p[3] = 0x10 | (cc & 0x0F) // payload present
	copy(p[HeadSize:], payload)
	return p
}

// patSectionBytes is a PAT section (no pointer field) announcing
// program_number=1, pmt_pid=0x100, per spec scenario 1.
var patSectionBytes = []byte{
	0x00,       // table_id
	0xb0, 0x0d, // section_length = 13
	0x00, 0x01, // transport_stream_id
	0xc1, 0x00, 0x00, // version/current_next, section_number, last_section_number
	0x00, 0x01, // program_number = 1
	0xe1, 0x00, // reserved|pmt_pid = 0x100
	0x00, 0x00, 0x00, 0x00, // CRC placeholder
}

// pmtSectionBytes is a PMT section (no pointer field) for program 1,
// describing one H.264 stream on PID 0x200, per spec scenario 2.
var pmtSectionBytes = []byte{
	0x02,       // table_id
	0xb0, 0x12, // section_length = 18
	0x00, 0x01, // program_number = 1
	0xc1, 0x00, 0x00, // version/current_next, section_number, last_section_number
	0xe1, 0x00, // reserved|pcr_pid
	0xf0, 0x00, // reserved|program_info_length = 0
	0x1b,       // stream_type = H.264
	0xe2, 0x00, // reserved|elementary_pid = 0x200
	0xf0, 0x00, // reserved|es_info_length = 0
	0x00, 0x00, 0x00, 0x00, // CRC placeholder
}

func newTestDispatcher(t *testing.T, packets [][]byte, config ParserConfig) (*Dispatcher, *ParserState, *bytes.Buffer) {
	t.Helper()
	var wire bytes.Buffer
	for _, p := range packets {
		wire.Write(p)
	}

	log := logging.New(logging.Debug, io.Discard, true)
	state := NewParserState(config, nil, log)
	var report bytes.Buffer
	reporter := sink.NewReporter(&report)

	sync := NewSynchronizer(NewSource(&wire))
	return NewDispatcher(sync, state, reporter), state, &report
}

func TestDispatcherMinimalPATOnly(t *testing.T) {
	pat := buildPacket(PatPid, true, 0, append([]byte{0x00}, patSectionBytes...))
	// The Synchronizer only emits a packet once the following sync byte
	// confirms it, so a trailing null packet is needed for the PAT to be
	// dispatched.
	null := buildPacket(NullPid, false, 0, nil)

	d, state, report := newTestDispatcher(t, [][]byte{pat, null}, ParserConfig{ShowStreamInfo: true})
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := state.Pat[1]; got != 0x100 {
		t.Errorf("pat[1] = 0x%x, want 0x100", got)
	}
	if len(state.Pmts) != 0 {
		t.Errorf("len(Pmts) = %d, want 0", len(state.Pmts))
	}
	if report.Len() != 0 {
		t.Errorf("reporter output = %q, want empty", report.String())
	}
}

func TestDispatcherPatAndPmt(t *testing.T) {
	pat := buildPacket(PatPid, true, 0, append([]byte{0x00}, patSectionBytes...))
	pmt := buildPacket(0x100, true, 0, append([]byte{0x00}, pmtSectionBytes...))

	d, state, report := newTestDispatcher(t, [][]byte{pat, pmt}, ParserConfig{ShowStreamInfo: true})
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(state.Pmts) != 1 {
		t.Fatalf("len(Pmts) = %d, want 1", len(state.Pmts))
	}
	if !state.Pmts[0].GotPmt {
		t.Error("GotPmt = false, want true")
	}

	out := report.String()
	if !strings.Contains(out, "Program Number: 1") {
		t.Errorf("report missing program number line; got:\n%s", out)
	}
	if !strings.Contains(out, "pid: 0x0200 : H.264 Video") {
		t.Errorf("report missing stream line; got:\n%s", out)
	}
}

func TestDispatcherElementaryBeforePmtIsDropped(t *testing.T) {
	es := buildPacket(0x200, true, 0, []byte{0x00, 0x00, 0x01, 0xE0, 0x00, 0x00, 0x80, 0x00, 0x00})

	d, state, _ := newTestDispatcher(t, [][]byte{es}, ParserConfig{ShowStreamInfo: true, ExtractES: true, DumpAllES: true})
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(state.esOwner) != 0 {
		t.Errorf("esOwner = %v, want empty (no PMT seen yet)", state.esOwner)
	}
}
