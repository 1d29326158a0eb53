// Package config holds the settings of the showinfo command.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	defaultPixFmt   = "yuv420p"
	defaultTimeBase = "1/25"
	defaultRate     = 25.0
	defaultLogLevel = "info"
)

// Config is the command configuration after flags and environment have
// been applied.
type Config struct {
	Input       string
	Width       int
	Height      int
	PixFmt      string
	TimeBase    string
	FrameRate   float64
	Frames      int
	CBORLog     string
	Listen      string
	Verify      bool
	LogLevel    string
	Strict      bool
	Description string
}

// Load parses args (without the program name). Environment variables,
// read through getenv, supply defaults that flags override:
//
//	SHOWINFO_INPUT      -i
//	SHOWINFO_SIZE       -s
//	SHOWINFO_PIX_FMT    -pix_fmt
//	SHOWINFO_LISTEN     -listen
//	SHOWINFO_LOG_LEVEL  -log-level
func Load(args []string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	fs := flag.NewFlagSet("showinfo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		cfg  Config
		size string
	)
	fs.StringVar(&cfg.Input, "i", env("SHOWINFO_INPUT", ""), "raw video file, or - for stdin")
	fs.StringVar(&size, "s", env("SHOWINFO_SIZE", ""), "frame size as WxH")
	fs.StringVar(&cfg.PixFmt, "pix_fmt", env("SHOWINFO_PIX_FMT", defaultPixFmt), "pixel format name")
	fs.StringVar(&cfg.TimeBase, "time_base", defaultTimeBase, "time base as num/den")
	fs.Float64Var(&cfg.FrameRate, "r", defaultRate, "frame rate used to stamp PTS")
	fs.IntVar(&cfg.Frames, "frames", 0, "stop after N frames (0 = all)")
	fs.StringVar(&cfg.CBORLog, "cbor-log", "", "write records to this CBOR log file")
	fs.StringVar(&cfg.Listen, "listen", env("SHOWINFO_LISTEN", ""), "serve the websocket live view on this address")
	fs.BoolVar(&cfg.Verify, "verify", false, "cross-check checksums with libavutil")
	fs.StringVar(&cfg.LogLevel, "log-level", env("SHOWINFO_LOG_LEVEL", defaultLogLevel), "log level")
	fs.BoolVar(&cfg.Strict, "strict", false, "fail on malformed planes instead of skipping them")
	fs.StringVar(&cfg.Description, "desc", "", "label attached to every record")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("config: unexpected arguments %v", fs.Args())
	}

	w, h, err := ParseSize(size)
	if err != nil {
		return nil, err
	}
	cfg.Width, cfg.Height = w, h

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("config: input (-i) is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height))
	}
	if c.PixFmt == "" {
		errs = append(errs, errors.New("config: pix_fmt is required"))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("config: frame rate must be positive, got %g", c.FrameRate))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("config: frames must not be negative, got %d", c.Frames))
	}
	return errors.Join(errs...)
}

// ParseSize parses "WxH".
func ParseSize(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, errors.New("config: size (-s) is required")
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("config: invalid size %q, want WxH", s)
	}
	width, err = strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("config: invalid width in %q: %w", s, err)
	}
	height, err = strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("config: invalid height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("config: invalid size %q", s)
	}
	return width, height, nil
}
