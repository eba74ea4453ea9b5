package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// Immutable configuration snapshot for one invocation. Established once by
// parseCli; the watch machinery only ever reads it.
type options struct {
	Paths  []string
	Output string
	Join   string
	Debug  bool
	Quiet  bool
}

func (o options) joinMode() bool { return o.Join != "" }

func parseCli(args []string) (options, error) {
	fs := pflag.NewFlagSet("percolate", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	var help bool
	fs.StringVarP(&opts.Output, "output", "o", "", "directory compiled artifacts are written under")
	fs.StringVarP(&opts.Join, "join", "j", "", "concatenate all sources and compile them as NAME")
	fs.BoolVarP(&opts.Debug, "debug", "d", false, "print raw filesystem events to stderr")
	fs.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress compiled/removed status lines")
	fs.BoolVarP(&help, "help", "h", false, "print usage and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if help {
		fmt.Print(usage())
		os.Exit(0)
	}
	if fs.NArg() == 0 {
		return options{}, fmt.Errorf("at least one PATH to watch is required")
	}
	opts.Paths = fs.Args()

	if opts.Join != "" && filepath.Ext(opts.Join) == "" {
		opts.Join += defaultExt
	}
	return opts, nil
}
