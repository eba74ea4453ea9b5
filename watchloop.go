package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// loop drains raw filesystem notifications and fans them out to per-path
// settle timers. All the real work happens after a debounce window expires,
// by which time the registry may have moved on, so every fired handler
// re-validates what it's about to touch.
func (s *watchSession) loop() {
	for {
		select {
		case ev, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			s.dispatch(ev)
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			die(exWatcher, err)
		}
	}
}

func (s *watchSession) dispatch(ev fsnotify.Event) {
	s.debugf("[%s] %s", ev.Op, ev.Name)

	path := filepath.Clean(ev.Name)
	s.mu.Lock()
	fw := s.files[path]
	dw := s.dirs[path]
	parent := s.dirs[filepath.Dir(path)]
	s.mu.Unlock()

	if dw != nil {
		dw.settle(func() { s.rescanDir(path, dw.base) })
		return
	}

	if fw != nil {
		if ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
			// Editors that save by rename-over-write kill the inode our
			// watch points at; recover off the event loop.
			go s.recoverRename(path, fw)
			return
		}
		fw.settle(func() { s.verify(path, fw) })
		return
	}

	// An event for something we don't watch directly: a new entry inside a
	// watched directory.
	if parent != nil {
		dir := filepath.Dir(path)
		parent.settle(func() { s.rescanDir(dir, parent.base) })
	}
}

// verify fires after a file's settle window. The stat snapshot guards the
// re-read: editors and fsnotify both produce wakeups where nothing changed.
func (s *watchSession) verify(path string, fw *fileWatch) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		s.dropFile(path)
		return
	}

	s.mu.Lock()
	unchanged := info.Size() == fw.size && info.ModTime().Equal(fw.modTime)
	if !unchanged {
		fw.size, fw.modTime = info.Size(), info.ModTime()
	}
	s.mu.Unlock()
	if unchanged {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		s.dropFile(path)
		return
	}
	s.accept(path, fw.base, content)
}

// recoverRename re-establishes a watch after the watched inode went away:
// drop the stale watch, give the filesystem a beat to settle, then compile
// whatever now sits at the path and watch it again. A path that stays gone
// is a removal.
func (s *watchSession) recoverRename(path string, fw *fileWatch) {
	s.fsWatcher.Remove(path) // stale inode; failure is expected
	time.Sleep(renameSettleWindow)

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		s.dropFile(path)
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		s.dropFile(path)
		return
	}

	s.mu.Lock()
	fw.size, fw.modTime = info.Size(), info.ModTime()
	s.mu.Unlock()
	if !s.accept(path, fw.base, content) {
		// Unregistered while we slept; the session no longer tracks this
		// path, so don't resurrect its watch.
		return
	}

	if err := s.fsWatcher.Add(path); err != nil {
		if !os.IsNotExist(err) {
			die(exWatcher, err)
		}
		s.dropFile(path)
	}
}

// rescanDir fires after a directory's settle window: diff the current listing
// against the registry and walk anything new. A listing that fails with
// not-found means the directory itself is gone, taking its subtree with it.
func (s *watchSession) rescanDir(dir, base string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			die(exFilesystem, err)
		}
		s.fsWatcher.Remove(dir)
		if s.removeSubtree(dir) > 0 && s.opts.joinMode() {
			s.scheduleJoin()
		}
		return
	}

	for _, ent := range entries {
		child := filepath.Join(dir, ent.Name())
		if s.isNonSource(child) || s.covers(child) {
			continue
		}
		s.registerPath(child)
		s.walk(child, false, base)
	}
}

// dropFile is the terminal state for a watched file that no longer exists:
// forget its watch, unregister it, and either clean up its artifact or fold
// the removal into a join recompilation. Quiet when the file was already
// dropped by someone else.
func (s *watchSession) dropFile(path string) {
	s.mu.Lock()
	fw := s.files[path]
	delete(s.files, path)
	s.mu.Unlock()
	s.fsWatcher.Remove(path)

	if !s.removeSource(path) {
		return
	}

	if s.opts.joinMode() {
		s.scheduleJoin()
		return
	}

	if fw != nil {
		if c := s.compilers[filepath.Ext(path)]; c != nil {
			artifact := outputPath(path, fw.base, s.opts.Output) + c.Suffix
			if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
				s.debugf("removing %s: %v", artifact, err)
			}
		}
	}
	s.status(verbRemoved, path)
}
