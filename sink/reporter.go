/*
NAME
  reporter.go

DESCRIPTION
  reporter.go implements the Reporter Sink: passive collection and final
  emission of program/service/stream enumeration, and PTS/DTS line
  printing, per spec §4.9/§6.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package sink

import (
	"fmt"
	"io"
)

// ProgramReport is one program's worth of reporter output: its number, an
// optional matching service, and its streams in declared order.
type ProgramReport struct {
	ProgramNumber uint16
	HasService    bool
	ProviderName  string
	ServiceName   string
	Streams       []StreamReport
}

// StreamReport is one elementary stream's PID and resolved description.
type StreamReport struct {
	PID         uint16
	Description string
}

// Reporter collects final program/service/stream state and renders it as
// text, and prints PTS/DTS lines as they are observed, per spec §4.9/§6.
type Reporter struct {
	w io.Writer
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report renders the final program/service/stream enumeration, per spec
// §4.9: for each program, emit program_number, then provider/service name
// if known, then each stream's (pid, description), followed by a
// separator line.
func (r *Reporter) Report(programs []ProgramReport) {
	for _, p := range programs {
		fmt.Fprintf(r.w, "Program Number: %d\n", p.ProgramNumber)
		if p.HasService {
			fmt.Fprintf(r.w, "   Provider: %s\n", p.ProviderName)
			fmt.Fprintf(r.w, "   Service: %s\n", p.ServiceName)
		}
		for _, s := range p.Streams {
			fmt.Fprintf(r.w, "   pid: 0x%04x : %s\n", s.PID, s.Description)
		}
		fmt.Fprintln(r.w)
	}
}

// PTS prints a PID/PTS line, per spec §6.
func (r *Reporter) PTS(pid uint16, pts uint64) {
	fmt.Fprintf(r.w, "PID: %d, PTS: 0x%x (%d)\n", pid, pts, pts)
}

// PTSDTS prints a PID/PTS/DTS line, per spec §6.
func (r *Reporter) PTSDTS(pid uint16, pts, dts uint64) {
	fmt.Fprintf(r.w, "PID: %d, PTS: 0x%x, DTS: 0x%x\n", pid, pts, dts)
}
