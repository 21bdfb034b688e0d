/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-lookupcache/log"
)

type syncWriter struct {
	mu      sync.Mutex
	encoder logf.Encoder
	output  io.Writer
}

//nolint:gocritic
func (w *syncWriter) WriteEntry(e logf.Entry) {
	var buf logf.Buffer
	var data []byte
	if err := w.encoder.Encode(&buf, e); err != nil {
		data = []byte(err.Error())
	} else {
		data = buf.Data
	}
	w.mu.Lock()
	_, _ = w.output.Write(data)
	w.mu.Unlock()
}

// NewLogger returns a debug level JSON logger writing to stderr.
// Entries are encoded synchronously, so it is only suitable for tests.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOutput(os.Stderr)
}

// NewLoggerWithOutput is like NewLogger but writes to the given output.
func NewLoggerWithOutput(output io.Writer) log.FieldLogger {
	w := &syncWriter{
		encoder: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}),
		output: output,
	}
	return &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, w)}
}
