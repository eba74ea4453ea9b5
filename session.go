package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// watchSession is the single owned context for one invocation: the
// configuration snapshot, the source registry, and the live per-path watch
// state. Everything mutable sits behind mu; callers never hold it across
// filesystem I/O.
//
// sources and sourceCode are parallel: sourceCode[i] is the last-read content
// of sources[i] (nil until first read). Every mutation splices both together,
// keeping the index correspondence intact; join mode concatenates sourceCode
// in this order.
type watchSession struct {
	opts options

	mu         sync.Mutex
	sources    []string
	sourceCode [][]byte
	nonSource  map[string]bool
	files      map[string]*fileWatch
	dirs       map[string]*dirWatch

	compilers map[string]*compiler
	fsWatcher *fsnotify.Watcher

	joinSettle func(func())

	out    io.Writer
	errOut io.Writer
}

// Live state for one watched source file. size and modTime are the last
// observed stat snapshot, used to drop wakeups where nothing actually
// changed.
type fileWatch struct {
	settle  func(func())
	base    string
	size    int64
	modTime time.Time
}

type dirWatch struct {
	settle func(func())
	base   string
}

func newSession(opts options) (*watchSession, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting FS watcher: %v", err)
	}

	return &watchSession{
		opts:       opts,
		nonSource:  make(map[string]bool),
		files:      make(map[string]*fileWatch),
		dirs:       make(map[string]*dirWatch),
		compilers:  defaultCompilers(),
		fsWatcher:  watcher,
		joinSettle: debounce.New(joinSettleWindow),
		out:        os.Stdout,
		errOut:     os.Stderr,
	}, nil
}

func (s *watchSession) close() error {
	return s.fsWatcher.Close()
}

func (s *watchSession) registerPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, path)
	s.sourceCode = append(s.sourceCode, nil)
}

// expandDirectory replaces dir's registry entry with its children, in place,
// preserving the surrounding order. The entry is located by path at splice
// time, never by a remembered index, so a concurrent removal can't redirect
// the splice; if dir is no longer registered the expansion is dropped
// entirely and a later rescan rediscovers whatever still exists.
func (s *watchSession) expandDirectory(dir string, children []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.sources, dir)
	if i < 0 {
		return
	}

	sources := make([]string, 0, len(s.sources)-1+len(children))
	sources = append(sources, s.sources[:i]...)
	sources = append(sources, children...)
	sources = append(sources, s.sources[i+1:]...)

	code := make([][]byte, 0, len(sources))
	code = append(code, s.sourceCode[:i]...)
	for range children {
		code = append(code, nil)
	}
	code = append(code, s.sourceCode[i+1:]...)

	s.sources, s.sourceCode = sources, code
}

func (s *watchSession) removeSource(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.sources, path)
	if i < 0 {
		return false
	}
	s.sources = slices.Delete(s.sources, i, i+1)
	s.sourceCode = slices.Delete(s.sourceCode, i, i+1)
	return true
}

// removeSubtree drops every registry entry and watch state at or under dir,
// returning how many registry entries went away.
func (s *watchSession) removeSubtree(dir string) int {
	prefix := dir + string(filepath.Separator)
	under := func(path string) bool {
		return path == dir || strings.HasPrefix(path, prefix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	sources := s.sources[:0]
	code := s.sourceCode[:0]
	for i, src := range s.sources {
		if under(src) {
			removed++
			continue
		}
		sources = append(sources, src)
		code = append(code, s.sourceCode[i])
	}
	s.sources, s.sourceCode = sources, code

	for path := range s.files {
		if under(path) {
			delete(s.files, path)
		}
	}
	for path := range s.dirs {
		if under(path) {
			delete(s.dirs, path)
		}
	}
	return removed
}

func (s *watchSession) markNonSource(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonSource[path] = true
}

func (s *watchSession) isNonSource(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonSource[path]
}

// covers reports whether path is already accounted for: registered itself, or
// a directory some registered source lives under. Directory rescans use this
// to tell genuinely new entries from ones already expanded into children.
func (s *watchSession) covers(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path + string(filepath.Separator)
	for _, src := range s.sources {
		if src == path || strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}

// setContent records freshly read content, refusing if path was removed from
// the registry while the read was in flight.
func (s *watchSession) setContent(path string, content []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.sources, path)
	if i < 0 {
		return false
	}
	s.sourceCode[i] = content
	return true
}

// joined concatenates every source's content in registry order. Not ready
// until every slot has been read at least once.
func (s *watchSession) joined() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.sourceCode {
		if code == nil {
			return nil, false
		}
	}
	return bytes.Join(s.sourceCode, []byte("\n")), true
}

func (s *watchSession) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sources)
}

func (s *watchSession) debugf(format string, args ...any) {
	if !s.opts.Debug {
		return
	}
	fmt.Fprintf(s.errOut, "[debug] "+format+"\n", args...)
}
