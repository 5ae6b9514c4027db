/*
NAME
  es_writer_test.go

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package sink

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ausocean/utils/logging"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func testLogger() logging.Logger {
	return logging.New(logging.Debug, io.Discard, true)
}

func TestESWriterFileName(t *testing.T) {
	if got, want := fileName(0x100), "out_0100.es"; got != want {
		t.Errorf("fileName(0x100) = %q, want %q", got, want)
	}
	if got, want := fileName(0x1FFF), "out_1fff.es"; got != want {
		t.Errorf("fileName(0x1FFF) = %q, want %q", got, want)
	}
}

func TestESWriterDumpAllLazilyOpens(t *testing.T) {
	var opened []uint16
	bufs := map[uint16]*bytes.Buffer{}

	w := NewESWriter(testLogger(), true)
	w.openFunc = func(pid uint16) (io.WriteCloser, error) {
		opened = append(opened, pid)
		b := &bytes.Buffer{}
		bufs[pid] = b
		return nopCloser{b}, nil
	}

	w.Write(0x100, []byte("a"))
	w.Write(0x100, []byte("b"))
	w.Write(0x200, []byte("c"))

	if len(opened) != 2 {
		t.Fatalf("opened %v, want exactly one open per distinct pid", opened)
	}
	if bufs[0x100].String() != "ab" {
		t.Errorf("pid 0x100 contents = %q, want %q", bufs[0x100].String(), "ab")
	}
	if bufs[0x200].String() != "c" {
		t.Errorf("pid 0x200 contents = %q, want %q", bufs[0x200].String(), "c")
	}
}

func TestESWriterSelectiveDropsUnregisteredPID(t *testing.T) {
	w := NewESWriter(testLogger(), false)
	w.openFunc = func(pid uint16) (io.WriteCloser, error) {
		t.Fatalf("unexpected open for pid 0x%x in selective mode", pid)
		return nil, nil
	}

	w.Write(0x100, []byte("a"))
}

func TestESWriterSelectRegistersPID(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewESWriter(testLogger(), false)
	w.openFunc = func(pid uint16) (io.WriteCloser, error) { return nopCloser{buf}, nil }

	w.Select(0x100)
	w.Write(0x100, []byte("hello"))
	w.Write(0x200, []byte("ignored"))

	if buf.String() != "hello" {
		t.Errorf("got %q, want %q", buf.String(), "hello")
	}
}

func TestESWriterOpenFailureIsSticky(t *testing.T) {
	var attempts int
	w := NewESWriter(testLogger(), true)
	w.openFunc = func(pid uint16) (io.WriteCloser, error) {
		attempts++
		return nil, errors.New("boom")
	}

	w.Write(0x100, []byte("a"))
	w.Write(0x100, []byte("b"))

	if attempts != 1 {
		t.Errorf("openFunc called %d times, want exactly 1 (subsequent writes must no-op)", attempts)
	}
}
