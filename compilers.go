package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// compileFunc transforms source bytes into the artifact at outNoExt plus the
// compiler's suffix. Implementations report rejected input as an error; they
// never terminate the process.
type compileFunc func(content []byte, src, outNoExt string) error

// compiler invokes one external source-to-artifact tool. The command template
// is run with the source on stdin; whatever it prints to stdout becomes the
// artifact. A non-nil run overrides the external command (tests rely on
// this).
type compiler struct {
	Suffix  string
	Command string
	run     compileFunc
}

func defaultCompilers() map[string]*compiler {
	return map[string]*compiler{
		".coffee": {Suffix: ".js", Command: "coffee --compile --stdio"},
		".styl":   {Suffix: ".css", Command: "stylus"},
		".less":   {Suffix: ".css", Command: "lessc -"},
		".jade":   {Suffix: ".html", Command: "jade"},
	}
}

func (c *compiler) compile(content []byte, src, outNoExt string) error {
	if c.run != nil {
		return c.run(content, src, outNoExt)
	}

	argv, err := shlex.Split(c.Command)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Compiler rejections and a missing tool both surface here; the
		// tool's own diagnostics beat exec's when it printed any.
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.New(msg)
		}
		return err
	}

	return os.WriteFile(outNoExt+c.Suffix, stdout.Bytes(), 0644)
}
