//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink receives one diagnostic line per processed frame, in order.
type Sink interface {
	Emit(line string) error
}

// RecordSink receives the structured record instead of the text line.
// A Sink that also implements RecordSink is given records.
type RecordSink interface {
	EmitRecord(rec *Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(line string) error

// Emit calls f(line).
func (f SinkFunc) Emit(line string) error {
	return f(line)
}

// WriterSink writes each line, newline terminated, to an io.Writer.
// The writer stays owned by the caller and is not closed on Shutdown.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes line and a newline in a single Write call.
func (s *WriterSink) Emit(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := s.w.Write(buf)
	return err
}

// LogSink logs each record at Info level with its fields attached.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink logging to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Emit logs a bare line.
func (s *LogSink) Emit(line string) error {
	s.logger.Info(line)
	return nil
}

// EmitRecord logs the record's line with its main fields.
func (s *LogSink) EmitRecord(rec *Record) error {
	fields := []zap.Field{
		zap.Uint64("n", rec.N),
		zap.Int64("pts", rec.PTS),
		zap.String("fmt", rec.Format),
		zap.Uint32("checksum", rec.Checksum),
	}
	if rec.Instance != "" {
		fields = append(fields, zap.String("instance", rec.Instance))
	}
	if rec.Description != nil {
		fields = append(fields, zap.String("description", *rec.Description))
	}
	s.logger.Info(rec.String(), fields...)
	return nil
}

// Sync flushes the logger.
func (s *LogSink) Sync() error {
	return s.logger.Sync()
}

// MultiSink delivers each line to every sink in order and stops at the
// first failure.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(line string) error {
	for _, s := range m {
		if err := s.Emit(line); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every member that is an io.Closer.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// sinkEntry is one configured destination. rec takes precedence over
// line when set.
type sinkEntry struct {
	line Sink
	rec  RecordSink
}

func newSinkEntry(s Sink) sinkEntry {
	e := sinkEntry{line: s}
	if rs, ok := s.(RecordSink); ok {
		e.rec = rs
	}
	return e
}

func (e sinkEntry) deliver(rec *Record) error {
	if e.rec != nil {
		return e.rec.EmitRecord(rec)
	}
	return e.line.Emit(rec.String())
}

func (e sinkEntry) close() error {
	var target any = e.line
	if target == nil {
		target = e.rec
	}
	if c, ok := target.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
