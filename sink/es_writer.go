/*
NAME
  es_writer.go

DESCRIPTION
  es_writer.go implements the ES Writer Sink: a map from PID to an opaque
  writer that elementary-stream payload bytes are appended to, per spec
  §4.8.

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

// Package sink provides the Dispatcher's output collaborators: the ES
// Writer Sink (per-PID raw payload files) and the Reporter Sink (program,
// service and stream enumeration).
package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
)

// ESWriter is the ES Writer Sink described in spec §4.8. In selective mode
// only PIDs explicitly registered via Select are written; in dump-all mode
// any PID is lazily opened on first write.
type ESWriter struct {
	log      logging.Logger
	dumpAll  bool
	writers  map[uint16]io.WriteCloser
	failed   map[uint16]bool // PIDs whose writer failed to open; further writes are no-ops
	openFunc func(pid uint16) (io.WriteCloser, error)
}

// NewESWriter returns an ESWriter. When dumpAll is true, any PID with
// elementary-stream data gets a writer on first use; otherwise only PIDs
// passed to Select are ever written.
func NewESWriter(log logging.Logger, dumpAll bool) *ESWriter {
	w := &ESWriter{
		log:     log,
		dumpAll: dumpAll,
		writers: make(map[uint16]io.WriteCloser),
		failed:  make(map[uint16]bool),
	}
	w.openFunc = w.openFile
	return w
}

// fileName is the out_XXXX.es naming convention from spec §4.8/§6.
func fileName(pid uint16) string {
	return fmt.Sprintf("out_%04x.es", pid)
}

func (w *ESWriter) openFile(pid uint16) (io.WriteCloser, error) {
	return os.Create(fileName(pid))
}

// Select eagerly opens a writer for pid, registering it for selective-mode
// output. Opening failure is logged; subsequent writes for pid become
// no-ops, per spec §4.8's OutputOpenError handling.
func (w *ESWriter) Select(pid uint16) {
	if _, ok := w.writers[pid]; ok {
		return
	}
	f, err := w.openFunc(pid)
	if err != nil {
		w.log.Error("failed to open es output", "pid", pid, "error", err)
		w.failed[pid] = true
		return
	}
	w.writers[pid] = f
}

// Write appends payload to pid's output, per spec §4.8. In selective mode a
// pid never registered via Select is silently dropped. In dump-all mode a
// writer is opened lazily on first use.
func (w *ESWriter) Write(pid uint16, payload []byte) {
	if len(payload) == 0 {
		return
	}
	if w.failed[pid] {
		return
	}

	f, ok := w.writers[pid]
	if !ok {
		if !w.dumpAll {
			return
		}
		var err error
		f, err = w.openFunc(pid)
		if err != nil {
			w.log.Error("failed to open es output", "pid", pid, "error", err)
			w.failed[pid] = true
			return
		}
		w.writers[pid] = f
	}

	if _, err := f.Write(payload); err != nil {
		w.log.Error("failed to write es output", "pid", pid, "error", err)
	}
}

// Close releases every open writer's underlying file handle, per spec §5's
// scoped-acquisition requirement: the Dispatcher closes the ESWriter on
// every exit path, including one that abandons parsing mid-stream.
func (w *ESWriter) Close() {
	for pid, f := range w.writers {
		if err := f.Close(); err != nil {
			w.log.Warning("failed to close es output", "pid", pid, "error", err)
		}
	}
}
