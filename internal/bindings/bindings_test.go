//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"errors"
	"testing"
)

func TestFindLibraryVersions(t *testing.T) {
	// Only checks that the lookup does not panic; FFmpeg may be absent.
	_, err := FindLibrary("avutil", avutilVersions)
	if err != nil {
		t.Logf("FFmpeg not found (expected if not installed): %v", err)
	}
}

func TestFindLibraryMissing(t *testing.T) {
	_, err := FindLibrary("definitely-not-an-ffmpeg-library", []int{1})
	if !errors.Is(err, ErrLibraryNotFound) {
		t.Errorf("expected ErrLibraryNotFound, got %v", err)
	}
}

func TestAVUtilVersionBeforeLoad(t *testing.T) {
	if IsLoaded() {
		t.Skip("library already loaded by another test")
	}
	if v := AVUtilVersion(); v != 0 {
		t.Errorf("AVUtilVersion before Load: expected 0, got %d", v)
	}
}

// Integration test - only meaningful if FFmpeg is available
func TestLoadFFmpeg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping libavutil load in short mode")
	}

	if err := Load(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}

	if !IsLoaded() {
		t.Error("IsLoaded should be true after successful Load")
	}

	ver := AVUtilVersion()
	if ver == 0 {
		t.Error("AVUtilVersion should return non-zero after Load")
	}
	if AVUtilMajor() < avutilVersions[len(avutilVersions)-1] {
		t.Errorf("unexpected avutil major %d", AVUtilMajor())
	}

	t.Logf("libavutil loaded: version %d.%d.%d", ver>>16, (ver>>8)&0xFF, ver&0xFF)
}
