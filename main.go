package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	opts, err := parseCli(os.Args[1:])
	if err != nil {
		die(exCommandline, err)
	}

	session, err := newSession(opts)
	if err != nil {
		die(exWatcher, err)
	}
	defer session.close()

	go session.loop()

	for _, path := range opts.Paths {
		session.walkTop(path)
	}

	if !opts.Quiet {
		fmt.Printf("Watching %s\n", strings.Join(opts.Paths, ", "))
	}

	done := make(chan bool)
	<-done // watch until interrupted
}
