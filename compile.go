package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

type statusVerb string

const (
	verbCompiled statusVerb = "compiled"
	verbRemoved  statusVerb = "removed"
)

func (v statusVerb) colored() string {
	switch v {
	case verbCompiled:
		return color.GreenString(string(v))
	case verbRemoved:
		return color.YellowString(string(v))
	default:
		return string(v)
	}
}

func (s *watchSession) status(verb statusVerb, path string) {
	if s.opts.Quiet {
		return
	}
	fmt.Fprintf(s.out, "%s - %s %s\n",
		time.Now().Format("15:04:05"), verb.colored(), path)
}

// accept takes freshly read source content and routes it onward: record it,
// then either compile the file on its own or re-arm the join settle timer.
// Reports false, compiling nothing, when the path left the registry while
// the read was in flight.
func (s *watchSession) accept(path, base string, content []byte) bool {
	if !s.setContent(path, content) {
		return false
	}
	if s.opts.joinMode() {
		s.scheduleJoin()
		return true
	}
	s.compileFile(path, base, content)
	return true
}

// compileFile runs one source through its compiler and announces the result.
// Compiler rejections go to stderr as "<path>:<TAB><message>" and leave the
// watch running; the next save retries.
func (s *watchSession) compileFile(path, base string, content []byte) {
	c := s.compilers[filepath.Ext(path)]
	if c == nil {
		// Only reachable for a file named directly on the command line.
		fmt.Fprintf(s.errOut, "%s:\tno compiler registered for %q\n",
			path, filepath.Ext(path))
		return
	}

	out := outputPath(path, base, s.opts.Output)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		die(exFilesystem, err)
	}

	if err := c.compile(content, path, out); err != nil {
		fmt.Fprintf(s.errOut, "%s:\t%s\n", path, err)
		return
	}
	s.status(verbCompiled, path)
}

// scheduleJoin (re-)arms the join settle timer. Bursts of reads, like the
// initial walk, collapse into one joined compilation.
func (s *watchSession) scheduleJoin() {
	s.joinSettle(s.compileJoin)
}

// compileJoin concatenates every source in registry order and compiles the
// result as the synthetic source named by --join. Waits silently until every
// content slot has been filled; whichever read completes last re-arms the
// settle timer and gets here with a full registry.
func (s *watchSession) compileJoin() {
	content, ready := s.joined()
	if !ready {
		return
	}
	s.compileFile(s.opts.Join, ".", content)
}
