package main

import (
	"fmt"
	"os"
)

type exitReason int

const (
	exCommandline exitReason = 1 + iota
	exWatcher
	exFilesystem
)

func die(reason exitReason, e error) {
	var reasonStr string
	switch reason {
	case exCommandline:
		reasonStr = "usage"
	case exWatcher:
		reasonStr = "watcher"
	case exFilesystem:
		reasonStr = "filesystem"
	}

	fmt.Fprintf(os.Stderr, "%s error: %s\n", reasonStr, e.Error())
	os.Exit(int(reason))
}

// dieNotFound reports a PATH argument that never resolved. Its message is
// part of the command-line contract, so it bypasses die's labelled format.
func dieNotFound(path string) {
	fmt.Fprintf(os.Stderr, "File not found: %s\n", path)
	os.Exit(1)
}
