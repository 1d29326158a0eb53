//go:build !ios && !android && (amd64 || arm64)

// Command showinfo prints one diagnostic line per frame of a raw video
// stream:
//
//	showinfo -i clip.yuv -s 1280x720 -pix_fmt yuv420p
//	ffmpeg -i in.mp4 -f rawvideo -pix_fmt nv12 - | showinfo -i - -s 1920x1080 -pix_fmt nv12
//
// Records can also be appended to a CBOR log (-cbor-log) and streamed to
// websocket clients (-listen). -verify recomputes every checksum with
// libavutil's av_adler32_update.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/obinnaokechukwu/showinfo"
	"github.com/obinnaokechukwu/showinfo/avutil"
	"github.com/obinnaokechukwu/showinfo/internal/config"
	"github.com/obinnaokechukwu/showinfo/internal/live"
	"github.com/obinnaokechukwu/showinfo/internal/rawvideo"
	"github.com/obinnaokechukwu/showinfo/internal/recordlog"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	cfg, err := config.Load(args, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "showinfo: %v\n", err)
		fmt.Fprintln(stderr, "usage: showinfo -i <file|-> -s WxH [-pix_fmt fmt] [-time_base n/d] [-r fps] [-frames N] [-cbor-log path] [-listen addr] [-verify] [-strict] [-log-level level] [-desc text]")
		return exitUsage
	}

	level, err := showinfo.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "showinfo: %v\n", err)
		return exitUsage
	}
	logger := newLogger(stderr, level.ZapLevel())
	defer func() { _ = logger.Sync() }()

	if err := inspect(ctx, cfg, stdin, stdout, logger); err != nil {
		logger.Errorw("inspection failed", "error", err)
		return exitError
	}
	return exitOK
}

// newLogger builds a production JSON logger writing to w.
func newLogger(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func inspect(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer, logger *zap.SugaredLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	format := avutil.PixelFormatByName(cfg.PixFmt)
	if format == avutil.PixelFormatNone {
		return fmt.Errorf("unknown pixel format %q", cfg.PixFmt)
	}
	tb, err := avutil.ParseRational(cfg.TimeBase)
	if err != nil {
		return err
	}
	timing, err := showinfo.NewFrameTiming(tb, cfg.FrameRate)
	if err != nil {
		return err
	}

	var verifier *checksumVerifier
	if cfg.Verify {
		if err := showinfo.Init(); err != nil {
			return fmt.Errorf("-verify needs libavutil: %w", err)
		}
		if err := showinfo.SetLogLevel(showinfo.LogError); err != nil {
			logger.Warnw("could not set libavutil log level", "error", err)
		}
		verifier, err = newChecksumVerifier(format, logger)
		if err != nil {
			return err
		}
		logger.Infow("verifying against libavutil", "avutil_version", showinfo.Version())
	}

	in := stdin
	if cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	reader, err := rawvideo.NewReader(in, cfg.Width, cfg.Height, format)
	if err != nil {
		return err
	}
	reader.SetTiming(timing)
	// Sinks never keep a frame past Process, so one buffer is enough.
	pool := rawvideo.NewBufferPool(reader.FrameSize(), 1)
	defer pool.Close()
	reader.SetPool(pool)

	opts := []showinfo.Option{
		showinfo.WithSink(showinfo.NewWriterSink(stdout)),
		showinfo.WithLogger(logger.Desugar()),
	}
	if cfg.Strict {
		opts = append(opts, showinfo.WithMalformedPlanePolicy(showinfo.PolicyFail))
	}
	if cfg.Description != "" {
		opts = append(opts, showinfo.WithDescription(cfg.Description))
	}
	var sinks []io.Closer
	if cfg.CBORLog != "" {
		w, err := recordlog.Create(cfg.CBORLog)
		if err != nil {
			return err
		}
		opts = append(opts, showinfo.WithRecordSink(w))
		sinks = append(sinks, w)
	}

	var (
		processed atomic.Uint64
		instance  atomic.Value
	)
	serveErr := make(chan error, 1)
	var srv *live.Server
	if cfg.Listen != "" {
		srv = live.NewServer(logger.Desugar(), func() map[string]any {
			return map[string]any{
				"input":    cfg.Input,
				"size":     fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
				"pix_fmt":  cfg.PixFmt,
				"frames":   processed.Load(),
				"instance": instance.Load(),
			}
		})
		opts = append(opts, showinfo.WithRecordSink(srv))
		sinks = append(sinks, srv)
	}

	inspector, err := newInspector(opts, sinks)
	if err != nil {
		return err
	}
	if srv != nil {
		go func() { serveErr <- srv.ListenAndServe(ctx, cfg.Listen) }()
	}
	instance.Store(inspector.ID().String())
	logger.Infow("inspecting",
		"input", cfg.Input,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"pix_fmt", cfg.PixFmt,
		"frame_bytes", reader.FrameSize(),
		"instance", inspector.ID().String())

	runErr := readLoop(ctx, cfg, reader, inspector, verifier, &processed)
	if err := inspector.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	if verifier != nil && verifier.mismatches > 0 && runErr == nil {
		runErr = fmt.Errorf("%d of %d frames disagree with libavutil", verifier.mismatches, processed.Load())
	}
	if verifier != nil && cfg.CBORLog != "" && runErr == nil {
		runErr = checkRecordLog(cfg.CBORLog, processed.Load())
	}
	select {
	case err := <-serveErr:
		if err != nil && runErr == nil {
			runErr = err
		}
	default:
	}

	logger.Infow("done", "frames", processed.Load())
	return runErr
}

// newInspector builds the inspector. The record sinks were opened by the
// caller; they are closed here if construction fails, since Shutdown will
// never run for them.
func newInspector(opts []showinfo.Option, sinks []io.Closer) (*showinfo.Inspector, error) {
	inspector, err := showinfo.New(opts...)
	if err == nil {
		return inspector, nil
	}
	errs := []error{err}
	for _, c := range sinks {
		errs = append(errs, c.Close())
	}
	return nil, errors.Join(errs...)
}

func readLoop(ctx context.Context, cfg *config.Config, reader *rawvideo.Reader, inspector *showinfo.Inspector, verifier *checksumVerifier, processed *atomic.Uint64) error {
	for cfg.Frames == 0 || processed.Load() < uint64(cfg.Frames) {
		if ctx.Err() != nil {
			return nil
		}
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("trailing partial frame after %d frames", processed.Load())
		}
		if err != nil {
			return err
		}

		if verifier != nil {
			sums, err := inspector.Checksums(frame)
			if err != nil {
				return err
			}
			if err := verifier.check(frame, sums); err != nil {
				return err
			}
		}
		if _, err := inspector.Process(frame); err != nil {
			return err
		}
		if err := reader.Release(frame); err != nil {
			return err
		}
		processed.Add(1)
	}
	return nil
}
