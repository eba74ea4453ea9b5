package main

import (
	"path/filepath"
	"strings"
)

// outputPath maps a source file to its artifact path minus extension; the
// compiler appends its own suffix. With no output directory the artifact
// lands next to its source. With one, the source's directory relative to
// base is mirrored under it, so watching src/ with -o lib turns
// src/sub/a.coffee into lib/sub/a. Pure string surgery, no I/O.
func outputPath(source, base, outputDir string) string {
	dir := filepath.Dir(source)
	if outputDir != "" {
		baseDir := dir
		if base != "." {
			baseDir = strings.TrimPrefix(dir, base)
			baseDir = strings.TrimPrefix(baseDir, string(filepath.Separator))
		}
		dir = filepath.Join(outputDir, baseDir)
	}

	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, name)
}
