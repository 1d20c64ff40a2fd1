/*
NAME
  dtsprobe - a command line tool for probing DTS elementary streams.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// dtsprobe feeds a raw DTS elementary stream file through a FrameAssembler
// in caller-chosen chunk sizes, and logs each format announcement and
// emitted frame. It exists to exercise codec/dts against real capture
// files outside of the test suite.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/dts/codec/dts"
	"github.com/ausocean/utils/logging"
)

// Logging configuration.
const (
	logPath      = "dtsprobe.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 7 // days
)

func main() {
	inPath := flag.String("in", "", "path to a raw DTS elementary stream file")
	chunkSize := flag.Int("chunk", 4096, "number of bytes to feed the assembler per Consume call")
	language := flag.String("language", "", "language tag to carry through to the announced StreamFormat")
	logLevel := flag.Int("log-level", int(logging.Info), "log level (0=Debug .. 4=Fatal)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*logLevel), io.MultiWriter(fileLog, os.Stderr), true)

	if *inPath == "" {
		log.Fatal("dtsprobe: -in is required")
	}
	if *chunkSize <= 0 {
		log.Fatal("dtsprobe: -chunk must be positive")
	}

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatal("dtsprobe: failed to open input", "error", err.Error())
	}
	defer f.Close()

	out := &probeOutput{log: log, start: time.Now()}
	assembler := dts.NewFrameAssembler(out, log, *language)
	assembler.PacketStarted(0, 0)

	buf := make([]byte, *chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			assembler.Consume(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal("dtsprobe: read failed", "error", err.Error())
		}
	}
	assembler.PacketFinished()

	fmt.Printf("frames: %d, bytes: %d\n", out.frameCount, out.byteCount)
}

// probeOutput implements dts.Output, logging each format announcement and
// frame it receives.
type probeOutput struct {
	log        logging.Logger
	start      time.Time
	frameCount int
	byteCount  int
}

func (o *probeOutput) AnnounceFormat(format dts.StreamFormat) {
	o.log.Info("dtsprobe: format announced",
		"sampleRateHz", format.SampleRateHz,
		"channelCount", format.ChannelCount,
		"samplesPerFrame", format.SampleCountPerFrame,
		"codecTag", format.CodecTag,
	)
}

func (o *probeOutput) SampleData(data []byte) {
	o.byteCount += len(data)
}

func (o *probeOutput) SampleMetadata(ptsMicros int64, flags dts.SyncFlag, size int, offset int) {
	o.frameCount++
	o.log.Debug("dtsprobe: frame emitted", "pts", ptsMicros, "size", size, "n", o.frameCount)
}
