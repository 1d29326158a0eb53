//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/obinnaokechukwu/showinfo/avutil"
)

// LogLevel represents FFmpeg log levels.
type LogLevel int32

// Log level constants matching FFmpeg's AV_LOG_* values.
const (
	LogQuiet   LogLevel = -8 // Print no output
	LogPanic   LogLevel = 0  // Something went really wrong, crash
	LogFatal   LogLevel = 8  // Something went wrong, exit now
	LogError   LogLevel = 16 // Something went wrong, recovery possible
	LogWarning LogLevel = 24 // Something unexpected but recovery possible
	LogInfo    LogLevel = 32 // Standard information
	LogVerbose LogLevel = 40 // Detailed information
	LogDebug   LogLevel = 48 // Stuff for debugging
	LogTrace   LogLevel = 56 // Extremely verbose debugging
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch {
	case l <= LogQuiet:
		return "quiet"
	case l <= LogPanic:
		return "panic"
	case l <= LogFatal:
		return "fatal"
	case l <= LogError:
		return "error"
	case l <= LogWarning:
		return "warning"
	case l <= LogInfo:
		return "info"
	case l <= LogVerbose:
		return "verbose"
	case l <= LogDebug:
		return "debug"
	default:
		return "trace"
	}
}

// ZapLevel returns the closest zap level. Verbose, debug and trace all
// map to debug; quiet maps above fatal so nothing is logged.
func (l LogLevel) ZapLevel() zapcore.Level {
	switch {
	case l <= LogQuiet:
		return zapcore.FatalLevel + 1
	case l <= LogPanic:
		return zapcore.PanicLevel
	case l <= LogFatal:
		return zapcore.FatalLevel
	case l <= LogError:
		return zapcore.ErrorLevel
	case l <= LogWarning:
		return zapcore.WarnLevel
	case l <= LogInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ParseLogLevel accepts the FFmpeg level names ("quiet" ... "trace"),
// "warn" as an alias of "warning", or a numeric AV_LOG_* value.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return LogQuiet, nil
	case "panic":
		return LogPanic, nil
	case "fatal":
		return LogFatal, nil
	case "error":
		return LogError, nil
	case "warning", "warn":
		return LogWarning, nil
	case "info":
		return LogInfo, nil
	case "verbose":
		return LogVerbose, nil
	case "debug":
		return LogDebug, nil
	case "trace":
		return LogTrace, nil
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err == nil {
		return LogLevel(n), nil
	}
	return 0, fmt.Errorf("showinfo: unknown log level %q", s)
}

// SetLogLevel sets the FFmpeg log level.
// Returns an error if libavutil is not loaded.
func SetLogLevel(level LogLevel) error {
	return avutil.SetLogLevel(int32(level))
}
