package main

import (
	"fmt"
	"time"
)

const version string = "v0.3.0"

// Settle windows. These are tuned to absorb common editor save patterns
// (multiple writes per save, temp-file-then-rename) and are deliberately not
// configurable.
const (
	fileSettleWindow   time.Duration = 125 * time.Millisecond
	dirSettleWindow    time.Duration = 25 * time.Millisecond
	renameSettleWindow time.Duration = 25 * time.Millisecond
	joinSettleWindow   time.Duration = 100 * time.Millisecond
)

// Appended once to an extensionless PATH argument that does not resolve, so
// `percolate app` finds app.coffee.
const defaultExt = ".coffee"

func usage() string {
	return fmt.Sprintf(
		`Watches source files and recompiles them whenever they change.

  Usage:  percolate [-dq] [-o DIR] [-j NAME] PATH [PATH, ...]

  Description:
	 Each PATH is either a source file or a directory. Directories are watched
	 recursively: every file under them whose extension has a registered
	 compiler (.coffee, .styl, .jade, .less) is compiled once at startup and
	 recompiled on every save. Files added to a watched directory later are
	 picked up without a restart; deleted sources have their compiled artifact
	 removed. A PATH naming a file directly is always treated as a source,
	 whatever its extension.

  Arguments:
    PATH: source file or directory tree to watch. An extensionless PATH that
    does not exist is retried once with %q appended before the run is
    aborted with "File not found".

  General options:
    -o, --output DIR: write compiled artifacts under DIR, mirroring each
    directory PATH's own subdirectory structure. Defaults to writing next to
    each source.

    -j, --join NAME: instead of compiling sources individually, concatenate
    all of them (in discovery order) and compile the result as the single
    synthetic source NAME. NAME's extension picks the compiler; without one,
    %q is assumed.

    -d, --debug: print raw filesystem events to stderr.

    -q, --quiet: suppress the per-file "compiled"/"removed" status lines.
    Compiler failures are still reported on stderr.

  Output while running:
	 Successful compilations are announced on stdout as

	    HH:MM:SS - compiled path/to/source.coffee

	 and removals of watched sources as "HH:MM:SS - removed <path>". A compiler
	 that rejects its input writes "<path>:<TAB><message>" to stderr; the watch
	 keeps running and the next save of that file retries the compilation.

  Version %s
`, defaultExt, defaultExt, version)
}
