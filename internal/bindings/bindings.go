//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads libavutil at runtime with purego. Nothing in the
// module requires the library; it is used to cross-check checksums, to
// resolve pixel formats missing from the built-in table and to wrap frames
// allocated by FFmpeg.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/showinfo/internal/platform"
)

// ErrNotLoaded is returned when libavutil functions are called before Load().
var ErrNotLoaded = errors.New("showinfo: libavutil not loaded; call showinfo.Init() first")

// ErrLibraryNotFound is returned when libavutil cannot be found.
var ErrLibraryNotFound = errors.New("showinfo: FFmpeg library not found")

// avutilVersions lists the libavutil majors tried, newest first
// (59 = FFmpeg 7, 58 = FFmpeg 6, 57 = FFmpeg 5).
var avutilVersions = []int{59, 58, 57}

var (
	libAVUtil uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error

	avutilVersion func() uint32
)

// IsLoaded returns true if libavutil has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads libavutil. It is safe to call multiple times; only the first
// call does any work and its result is returned to every caller.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	if !platform.Is64Bit {
		return fmt.Errorf("loading libavutil: %w: 64-bit platform required", ErrLibraryNotFound)
	}

	var err error
	libAVUtil, err = loadLibrary("avutil", avutilVersions)
	if err != nil {
		return fmt.Errorf("loading libavutil: %w", err)
	}

	purego.RegisterLibFunc(&avutilVersion, libAVUtil, "avutil_version")
	return nil
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, searchPath := range platform.SearchPaths(os.Getenv) {
		// Versioned names first (more specific)
		for _, ver := range versions {
			lib, err := tryOpen(filepath.Join(searchPath, platform.FormatLibraryName(name, ver)))
			if err == nil {
				return lib, nil
			}
		}
		lib, err := tryOpen(filepath.Join(searchPath, platform.FormatLibraryName(name, 0)))
		if err == nil {
			return lib, nil
		}
	}

	// Let the dynamic loader search on its own
	for _, ver := range versions {
		lib, err := tryOpen(platform.FormatLibraryName(name, ver))
		if err == nil {
			return lib, nil
		}
	}
	lib, err := tryOpen(platform.FormatLibraryName(name, 0))
	if err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// tryOpen opens a library with RTLD_NOW | RTLD_GLOBAL.
func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// FindLibrary searches for a library and returns its full path without
// loading it. Useful for diagnostics.
func FindLibrary(name string, versions []int) (string, error) {
	for _, searchPath := range platform.SearchPaths(os.Getenv) {
		for _, ver := range versions {
			fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, ver))
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
		fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, 0))
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// AVUtilVersion returns the avutil library version (major<<16 | minor<<8 | micro).
// Returns 0 if the library is not loaded.
func AVUtilVersion() uint32 {
	if !loaded || avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// AVUtilMajor returns the major version of the loaded libavutil, or 0.
func AVUtilMajor() int {
	return int(AVUtilVersion() >> 16)
}

// LibAVUtil returns the avutil library handle.
func LibAVUtil() uintptr {
	return libAVUtil
}
