// Package main provides the entry point for csim.
// csim is a set-associative LRU cache simulator that replays memory traces.
//
// For the full CLI, use: go run ./cmd/csim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("csim - Cache Simulator")
	fmt.Println("Replays Valgrind memory traces through an LRU cache")
	fmt.Println("")
	fmt.Println("Usage: csim [-hv] -s <num> -E <num> -b <num> -t <file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -h         Print this help message.")
	fmt.Println("  -v         Optional verbose flag.")
	fmt.Println("  -s <num>   Number of set index bits.")
	fmt.Println("  -E <num>   Number of lines per set.")
	fmt.Println("  -b <num>   Number of block offset bits.")
	fmt.Println("  -t <file>  Trace file.")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/csim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/csim' instead.")
	}
}
