//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"testing"
)

type stubStage struct {
	err         error
	shutdownErr error
	seen        int
	shutdown    bool
}

func (s *stubStage) Process(f *Frame) (*Frame, error) {
	s.seen++
	if s.err != nil {
		return nil, s.err
	}
	return f, nil
}

func (s *stubStage) Shutdown() error {
	s.shutdown = true
	return s.shutdownErr
}

func TestChainRunsInspectorsInOrder(t *testing.T) {
	first, a := newTestInspector(t, WithDescription("before"))
	second, b := newTestInspector(t, WithDescription("after"))
	chain := Chain{first, second}

	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	out, err := chain.Process(f)
	if err != nil {
		t.Fatal(err)
	}
	if out != f {
		t.Fatal("chain did not pass the frame through")
	}
	if len(a.lines) != 1 || len(b.lines) != 1 || a.lines[0] != b.lines[0] {
		t.Fatalf("lines differ: %v %v", a.lines, b.lines)
	}
	if err := chain.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Fatal("sinks not closed by chain shutdown")
	}
}

func TestChainStopsAtError(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubStage{err: boom}
	after := &stubStage{}
	chain := Chain{failing, after}

	if _, err := chain.Process(&Frame{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if after.seen != 0 {
		t.Fatal("stage after the failure ran")
	}
}

func TestChainShutdownJoinsErrors(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	s1, s2, s3 := &stubStage{shutdownErr: e1}, &stubStage{}, &stubStage{shutdownErr: e2}
	err := Chain{s1, s2, s3}.Shutdown()
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if !s1.shutdown || !s2.shutdown || !s3.shutdown {
		t.Fatal("not every stage was shut down")
	}
}
