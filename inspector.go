//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/showinfo/avutil"
)

// PixFmtDescriptor describes the plane layout of a pixel format.
type PixFmtDescriptor = avutil.PixFmtDescriptor

// Resolver maps a pixel format to its descriptor.
type Resolver interface {
	Descriptor(PixelFormat) (*PixFmtDescriptor, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(PixelFormat) (*PixFmtDescriptor, bool)

// Descriptor calls f(p).
func (f ResolverFunc) Descriptor(p PixelFormat) (*PixFmtDescriptor, bool) {
	return f(p)
}

// Options configures an Inspector.
type Options struct {
	Sinks       []Sink
	RecordSinks []RecordSink
	Logger      *zap.Logger
	Policy      MalformedPlanePolicy
	Resolver    Resolver
	Description *string

	// UseLibAVUtil resolves formats missing from the built-in table
	// through libavutil. RequireLibAVUtil makes New fail when it cannot
	// be loaded.
	UseLibAVUtil     bool
	RequireLibAVUtil bool

	err error
}

// Option is a functional option for New.
type Option func(*Options)

// WithSink adds a line sink. Sinks that also implement RecordSink receive
// records. Without any sink, lines go to os.Stderr.
func WithSink(s Sink) Option {
	return func(o *Options) {
		if s == nil {
			o.err = errors.New("nil sink")
			return
		}
		o.Sinks = append(o.Sinks, s)
	}
}

// WithRecordSink adds a structured record sink.
func WithRecordSink(s RecordSink) Option {
	return func(o *Options) {
		if s == nil {
			o.err = errors.New("nil record sink")
			return
		}
		o.RecordSinks = append(o.RecordSinks, s)
	}
}

// WithLogger sets the logger used for warnings. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMalformedPlanePolicy sets how planes that overrun their buffer are
// handled. The default is PolicySkipPlane.
func WithMalformedPlanePolicy(p MalformedPlanePolicy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithDescriptorResolver replaces the pixel format lookup.
func WithDescriptorResolver(r Resolver) Option {
	return func(o *Options) {
		o.Resolver = r
	}
}

// WithDescription attaches a free-text label to every record.
func WithDescription(desc string) Option {
	return func(o *Options) {
		o.Description = &desc
	}
}

// WithLibAVUtil enables libavutil descriptor lookup. When required is
// true, New fails if libavutil cannot be loaded; otherwise the built-in
// table is used alone.
func WithLibAVUtil(required bool) Option {
	return func(o *Options) {
		o.UseLibAVUtil = true
		o.RequireLibAVUtil = required
	}
}

// Inspector is a pass-through stage that fingerprints every frame.
//
// An Inspector is not safe for concurrent use; the host serializes calls
// to Process.
type Inspector struct {
	id           uuid.UUID
	frameCounter uint64
	sinks        []sinkEntry
	logger       *zap.Logger
	resolver     Resolver
	policy       MalformedPlanePolicy
	description  *string
	closed       bool
}

// New creates an Inspector with its frame counter at 0.
func New(opts ...Option) (*Inspector, error) {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, &InitError{Op: "options", Err: o.err}
	}
	if o.Policy != PolicySkipPlane && o.Policy != PolicyFail {
		return nil, &InitError{Op: "options", Err: fmt.Errorf("unknown malformed plane policy %d", int(o.Policy))}
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := o.Resolver
	if o.UseLibAVUtil {
		if err := avutil.Load(); err != nil {
			if o.RequireLibAVUtil {
				return nil, &InitError{Op: "load libavutil", Err: err}
			}
			logger.Debug("libavutil unavailable, using built-in pixel formats", zap.Error(err))
		}
		if resolver == nil {
			resolver = ResolverFunc(avutil.LibDescriptor)
		}
	}
	if resolver == nil {
		resolver = ResolverFunc(avutil.Descriptor)
	}

	in := &Inspector{
		id:          uuid.New(),
		logger:      logger,
		resolver:    resolver,
		policy:      o.Policy,
		description: o.Description,
	}
	for _, s := range o.Sinks {
		in.sinks = append(in.sinks, newSinkEntry(s))
	}
	for _, s := range o.RecordSinks {
		in.sinks = append(in.sinks, sinkEntry{rec: s})
	}
	if len(in.sinks) == 0 {
		in.sinks = append(in.sinks, newSinkEntry(NewWriterSink(os.Stderr)))
	}

	in.logger = in.logger.With(zap.String("instance", in.id.String()))
	in.logger.Debug("inspector created",
		zap.Int("sinks", len(in.sinks)),
		zap.Stringer("policy", in.policy))
	return in, nil
}

// ID returns the random identifier of this instance.
func (in *Inspector) ID() uuid.UUID {
	return in.id
}

// FrameCount returns the number of frames processed so far.
func (in *Inspector) FrameCount() uint64 {
	return in.frameCounter
}

// Process fingerprints frame, delivers its record to the sinks and
// returns the same frame. The frame is only read.
//
// On error the counter is unchanged and nil is returned. A failing sink
// stops delivery; sinks after it do not see the record.
func (in *Inspector) Process(frame *Frame) (*Frame, error) {
	if in.closed {
		return nil, ErrClosed
	}
	if frame == nil {
		return nil, ErrNilFrame
	}

	desc, sums, err := in.checksums(frame)
	if err != nil {
		return nil, err
	}

	rec := newRecord(in.frameCounter, frame, desc.Name, sums)
	rec.Description = in.description
	rec.Instance = in.id.String()

	for _, s := range in.sinks {
		if err := s.deliver(&rec); err != nil {
			return nil, fmt.Errorf("showinfo: emit: %w", err)
		}
	}

	in.frameCounter++
	return frame, nil
}

// Checksums computes the fingerprints of frame without emitting a record
// or advancing the counter.
func (in *Inspector) Checksums(frame *Frame) (Checksums, error) {
	if frame == nil {
		return Checksums{}, ErrNilFrame
	}
	_, sums, err := in.checksums(frame)
	return sums, err
}

func (in *Inspector) checksums(frame *Frame) (*PixFmtDescriptor, Checksums, error) {
	desc, ok := in.resolver.Descriptor(frame.Format)
	if !ok || desc == nil {
		return nil, Checksums{}, &FormatError{Format: frame.Format}
	}
	sums, err := computeChecksums(frame, desc, in.policy, in.warnSkipped)
	if err != nil {
		return nil, Checksums{}, err
	}
	return desc, sums, nil
}

func (in *Inspector) warnSkipped(perr *PlaneError) {
	in.logger.Warn("skipping malformed plane",
		zap.Uint64("n", in.frameCounter),
		zap.Int("plane", perr.Plane),
		zap.Int("rows", perr.Rows),
		zap.Int("stride", perr.Stride),
		zap.Int("row_bytes", perr.RowBytes),
		zap.Int("len", perr.Len))
}

// Shutdown closes every sink that implements io.Closer. Further calls to
// Process return ErrClosed. Calling Shutdown again is a no-op.
func (in *Inspector) Shutdown() error {
	if in.closed {
		return nil
	}
	in.closed = true

	var errs []error
	for _, s := range in.sinks {
		if err := s.close(); err != nil {
			in.logger.Warn("closing sink", zap.Error(err))
			errs = append(errs, err)
		}
	}
	in.logger.Debug("inspector shut down", zap.Uint64("frames", in.frameCounter))
	return errors.Join(errs...)
}
