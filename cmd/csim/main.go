// Package main provides the csim command, a cache simulator that replays
// Valgrind memory traces and reports hits, misses and evictions.
//
// Usage:
//
//	csim [-hv] -s <num> -E <num> -b <num> -t <file>
//	csim sweep -t <file> --config <sweep.yaml> [--csv | --json]
//
// Example:
//
//	csim -s 4 -E 1 -b 4 -t traces/yi.trace
//	csim -v -s 8 -E 2 -b 4 -t traces/yi.trace
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"

	mylog "github.com/sarchlab/csim/internal/log"
)

func main() {
	// A missing .env is fine; it only supplies CSIM_LOG.
	_ = godotenv.Load()
	mylog.InitLogger()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
