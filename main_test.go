package main

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer collects session output written from settle-timer goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeCompiler stands in for the external tools: it writes the artifact like
// a real compiler would and records every invocation.
type fakeCompiler struct {
	mu    sync.Mutex
	calls []string
	last  []byte
	fail  func(content []byte) error
}

func (f *fakeCompiler) compiler(suffix string) *compiler {
	return &compiler{
		Suffix: suffix,
		run: func(content []byte, src, outNoExt string) error {
			if f.fail != nil {
				if err := f.fail(content); err != nil {
					return err
				}
			}
			f.mu.Lock()
			f.calls = append(f.calls, src)
			f.last = append([]byte(nil), content...)
			f.mu.Unlock()
			return os.WriteFile(outNoExt+suffix, content, 0644)
		},
	}
}

func (f *fakeCompiler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompiler) lastContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.last)
}

// newTestSession wires a session to a fake .coffee compiler and in-memory
// output streams.
func newTestSession(t *testing.T, opts options) (*watchSession, *fakeCompiler, *syncBuffer, *syncBuffer) {
	t.Helper()

	s, err := newSession(opts)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(func() { s.close() })

	fake := &fakeCompiler{}
	s.compilers = map[string]*compiler{".coffee": fake.compiler(".js")}
	out, errOut := &syncBuffer{}, &syncBuffer{}
	s.out, s.errOut = out, errOut
	return s, fake, out, errOut
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func containsPath(snapshot []string, path string) bool {
	for _, s := range snapshot {
		if s == path {
			return true
		}
	}
	return false
}

func hasLine(output, verb, path string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, verb) && strings.Contains(line, path) {
			return true
		}
	}
	return false
}
