// run.go implements the 'synchtest run' and 'synchtest list' commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kolkov/ksynch/internal/synchtest"
	"github.com/kolkov/ksynch/kmem"
	"github.com/kolkov/ksynch/synch"
)

// runConfig holds configuration for the run command.
type runConfig struct {
	tests   []synchtest.Test
	cfg     synchtest.Config
	require string
}

// runCommand runs the requested self tests and returns the exit code:
// 0 if all passed, 1 if any failed, 2 on bad arguments.
func runCommand(args []string) int {
	rc, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if rc.require != "" {
		if err := synch.CheckVersion(rc.require); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("synchtest %s", synch.Version)))

	ctx := context.Background()
	failed := 0
	start := time.Now()
	for _, tt := range rc.tests {
		r := tt.Run(ctx, rc.cfg)
		printResult(r)
		if !r.Passed() {
			failed++
		}
	}
	printSummary(len(rc.tests), failed, time.Since(start))

	if failed > 0 {
		return 1
	}
	return 0
}

// parseRunArgs parses run flags followed by optional test names.
func parseRunArgs(args []string) (*runConfig, error) {
	def := synchtest.DefaultConfig()
	rc := &runConfig{}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.IntVar(&rc.cfg.Threads, "threads", def.Threads, "threads forked by each test")
	fs.IntVar(&rc.cfg.Loops, "loops", def.Loops, "iterations per thread")
	fs.IntVar(&rc.cfg.Capacity, "capacity", def.Capacity, "bounded buffer size for sy4")
	fs.BoolVar(&rc.cfg.Trace, "trace", false, "record and check happens-before ordering")
	mem := fs.Int64("mem", 0, "memory budget in bytes (0 = unlimited)")
	fs.StringVar(&rc.require, "require", "", "minimum library version")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *mem < 0 {
		return nil, fmt.Errorf("negative memory budget %d", *mem)
	}
	rc.cfg.Arena = kmem.NewArena(*mem)

	names := fs.Args()
	if len(names) == 0 {
		rc.tests = synchtest.Tests
		return rc, nil
	}
	for _, name := range names {
		tt, ok := synchtest.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown test %q (see 'synchtest list')", name)
		}
		rc.tests = append(rc.tests, tt)
	}
	return rc, nil
}

// listCommand prints the test menu.
func listCommand() {
	fmt.Println(titleStyle.Render("self tests"))
	for _, tt := range synchtest.Tests {
		fmt.Printf("  %s  %s\n", nameStyle.Render(tt.Name), tt.Title)
	}
}
