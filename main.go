// qbels is a language server for the QBE intermediate language.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	glspserver "github.com/tliron/glsp/server"

	"github.com/mkanilsson/qbels/internal/server"
)

const serverName = "qbels"

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(serverName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		debug       bool
		logFile     string
		showVersion bool
	)

	fs.BoolVar(&debug, "debug", false, "enable debug logging")
	fs.StringVar(&logFile, "log", "", "append logs to this file instead of stderr")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", serverName, version)
		return nil
	}

	// Stdout carries the protocol; logs go to stderr or a file.
	verbosity := 1
	if debug {
		verbosity = 2
	}
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)

	s := server.New(serverName, version)
	return glspserver.NewServer(s.Handler(), serverName, debug).RunStdio()
}
