/*
NAME
  tsdemux/main.go

DESCRIPTION
  tsdemux reads an MPEG-2 Transport Stream file, reconstructs its PAT/PMT/SDT
  tables, optionally extracts elementary-stream payloads per PID, and
  optionally prints PTS/DTS timestamps as they are observed.

  Bare invocation (a file path and nothing else) is equivalent to passing
  -show-stream-info.

AUTHOR
  the tsdemux authors

LICENSE
  Copyright (C) 2026 the tsdemux authors.
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/tsdemux/container/mts"
	"github.com/ausocean/tsdemux/sink"
	"github.com/ausocean/utils/logging"
)

// Various errors that we can encounter.
const (
	errBadInPath  = "no input file path provided, or file does not exist"
	errBadPidFlag = "bad pid value for -output-pid or -print-pts"
)

// Consts describing flag usage.
const (
	showStreamInfoUsage = "enable reporter emission and early termination once all programs are fully described"
	outputPidUsage      = "extract elementary-stream payloads; a PID selects one stream, omitted or 0x1fff dumps every stream"
	printPtsUsage       = "print PTS/DTS as observed; a PID selects one stream, omitted or 0x1fff prints every stream"
)

// Logging configuration.
const (
	logPath      = "tsdemux.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

// optionalPID is a flag.Value for an option that may be given bare (no
// value, meaning "all PIDs" / dump-all), with an explicit value (a specific
// PID), or omitted entirely.
type optionalPID struct {
	set bool
	all bool
	pid uint16
}

func (o *optionalPID) String() string {
	if o == nil || !o.set {
		return ""
	}
	if o.all {
		return "all"
	}
	return fmt.Sprintf("0x%x", o.pid)
}

// IsBoolFlag lets this flag be given bare, i.e. "-output-pid" with no "=value".
func (o *optionalPID) IsBoolFlag() bool { return true }

func (o *optionalPID) Set(s string) error {
	o.set = true
	if s == "" || s == "true" {
		o.all = true
		return nil
	}
	var v uint64
	_, err := fmt.Sscanf(s, "0x%x", &v)
	if err != nil {
		v, err = parseDecimal(s)
		if err != nil {
			return err
		}
	}
	if v == mts.NullPid {
		o.all = true
		return nil
	}
	o.pid = uint16(v)
	return nil
}

func parseDecimal(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func main() {
	showStreamInfo := flag.Bool("show-stream-info", false, showStreamInfoUsage)
	var outputPid optionalPID
	flag.Var(&outputPid, "output-pid", outputPidUsage)
	var printPts optionalPID
	flag.Var(&printPts, "print-pts", printPtsUsage)
	flag.Parse()

	inPath := flag.Arg(0)
	if inPath == "" {
		fmt.Fprintln(os.Stderr, errBadInPath)
		os.Exit(1)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	f, err := os.Open(inPath)
	if err != nil {
		log.Error("failed to open input", "path", inPath, "error", err)
		fmt.Fprintln(os.Stderr, errBadInPath)
		os.Exit(1)
	}
	defer f.Close()

	config := mts.ParserConfig{
		// Bare invocation (no flags at all besides the path) behaves as
		// show-stream-info, per spec §6.
		ShowStreamInfo: *showStreamInfo || (!outputPid.set && !printPts.set),

		ExtractES: outputPid.set,
		DumpAllES: outputPid.all,
		OutputPID: outputPid.pid,

		PrintPTS:     printPts.set,
		PrintAllPIDs: printPts.all,
		PrintPID:     printPts.pid,
	}

	var es *sink.ESWriter
	if config.ExtractES {
		es = sink.NewESWriter(log, config.DumpAllES)
		if !config.DumpAllES {
			es.Select(config.OutputPID)
		}
	}

	state := mts.NewParserState(config, es, log)
	reporter := sink.NewReporter(os.Stdout)
	src := mts.NewSource(f)
	sync := mts.NewSynchronizer(src)
	dispatcher := mts.NewDispatcher(sync, state, reporter)

	if err := dispatcher.Run(); err != nil {
		log.Error("parse failed", "error", err)
		os.Exit(1)
	}
}
