// Package main implements the synchtest CLI tool.
//
// synchtest runs the self tests of the kernel synchronization primitives
// (semaphores, locks, condition variables) the way a kernel test menu
// would, and prints a report.
//
// Usage:
//
//	synchtest run               # run sy1..sy4
//	synchtest run -threads 64 sy3
//	synchtest list              # list the self tests
//	synchtest version           # show version information
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/ksynch/synch"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		os.Exit(runCommand(os.Args[2:]))
	case "list":
		listCommand()
	case "version", "--version", "-v":
		versionCommand()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func versionCommand() {
	info := synch.GetInfo()
	fmt.Printf("synchtest version %s\n", info.Version)
	fmt.Printf("  primitives: %v\n", info.Primitives)
	fmt.Printf("  protocol:   %s\n", info.Protocol)
}

func printUsage() {
	fmt.Print(`synchtest - kernel synchronization self tests

USAGE:
    synchtest <command> [arguments]

COMMANDS:
    run        Run self tests (all of them if none are named)
    list       List the self tests
    version    Show version information
    help       Show this help message

RUN FLAGS:
    -threads N     threads forked by each test (default 32)
    -loops N       iterations per thread (default 120)
    -capacity N    bounded buffer size for sy4 (default 4)
    -trace         record and check happens-before ordering
    -mem BYTES     memory budget for the primitives (0 = unlimited)
    -require VER   fail unless the library is at least version VER

EXAMPLES:
    # Run the whole menu
    synchtest run

    # Hammer the condition variable test with more threads
    synchtest run -threads 128 -loops 50 sy3

    # Check handoff ordering as well
    synchtest run -trace sy1 sy2

`)
}
