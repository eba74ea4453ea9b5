package main

import (
	"os"
	"path/filepath"

	"github.com/bep/debounce"
)

// walkTop resolves one PATH argument and roots discovery there. Missing
// extensionless paths get exactly one retry with the default source
// extension; a PATH that still doesn't resolve aborts the whole run.
func (s *watchSession) walkTop(path string) {
	// Watch state and registry entries are keyed by this path, and event
	// names arrive cleaned; a raw `src/` or `./src` argument would never
	// match them.
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		if filepath.Ext(path) == "" {
			retry := path + defaultExt
			ri, rerr := os.Stat(retry)
			switch {
			case rerr == nil:
				path, info = retry, ri
			case !os.IsNotExist(rerr):
				die(exFilesystem, rerr)
			}
		}
		if info == nil {
			dieNotFound(path)
		}
	}

	if !s.covers(path) {
		s.registerPath(path)
	}

	// Output trees are mirrored relative to a directory argument itself; a
	// file argument keeps its own directory.
	base := "."
	if info.IsDir() {
		base = path
	}
	s.walk(path, true, base)
}

// walk classifies a registered path and fans out: directories get a watch and
// are expanded into their children, source files get a watch and an initial
// compilation, everything else is remembered as non-source and dropped.
func (s *watchSession) walk(path string, topLevel bool, base string) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		if topLevel {
			dieNotFound(path)
		}
		// Listed a moment ago, deleted before we got here.
		s.removeSource(path)
		return
	}

	switch {
	case info.IsDir():
		s.watchDir(path, base)
		entries, err := os.ReadDir(path)
		if err != nil {
			if !os.IsNotExist(err) {
				die(exFilesystem, err)
			}
			s.removeSource(path)
			return
		}
		children := make([]string, 0, len(entries))
		for _, ent := range entries {
			children = append(children, filepath.Join(path, ent.Name()))
		}
		s.expandDirectory(path, children)
		for _, child := range children {
			s.walk(child, false, base)
		}

	case topLevel || s.compilers[filepath.Ext(path)] != nil:
		s.watchFile(path, base, info)
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				die(exFilesystem, err)
			}
			s.removeSource(path)
			return
		}
		s.accept(path, base, content)

	default:
		s.markNonSource(path)
		s.removeSource(path)
	}
}

func (s *watchSession) watchDir(path, base string) {
	s.mu.Lock()
	if _, ok := s.dirs[path]; ok {
		s.mu.Unlock()
		return
	}
	s.dirs[path] = &dirWatch{settle: debounce.New(dirSettleWindow), base: base}
	s.mu.Unlock()

	if err := s.fsWatcher.Add(path); err != nil {
		if !os.IsNotExist(err) {
			die(exWatcher, err)
		}
		s.removeSubtree(path)
	}
}

func (s *watchSession) watchFile(path, base string, info os.FileInfo) {
	s.mu.Lock()
	if fw, ok := s.files[path]; ok {
		fw.size, fw.modTime = info.Size(), info.ModTime()
		s.mu.Unlock()
		return
	}
	s.files[path] = &fileWatch{
		settle:  debounce.New(fileSettleWindow),
		base:    base,
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	s.mu.Unlock()

	if err := s.fsWatcher.Add(path); err != nil {
		if !os.IsNotExist(err) {
			die(exWatcher, err)
		}
		s.dropFile(path)
	}
}
