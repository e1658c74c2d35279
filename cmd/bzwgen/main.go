// bzwgen builds BZFlag world geometry from shape grammars.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	if len(argv) < 1 {
		printUsage(stderr)
		return 1
	}

	command := argv[0]
	args := argv[1:]

	var err error
	switch command {
	case "generate", "gen":
		err = cmdGenerate(args, stdout)
	case "check":
		err = cmdCheck(args, stdout)
	case "floor":
		err = cmdFloor(args, stdout)
	case "init":
		err = cmdInit(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bzwgen - shape grammar building generator for BZFlag worlds

Usage:
  bzwgen <command> [options]

Commands:
  generate [options]                 Expand the grammar on every target
  check <file.grammar>               Parse a grammar and check rule references
  floor -a x,y -b x,y [options]      Emit a single floor zone
  init [file.yaml]                   Write a default configuration

Generate options:
  -config file   Batch configuration (default ./bzwgen.yaml if present)
  -grammar file  Grammar file
  -rule name     Start rule
  -seed n        Random seed
  -depth n       Maximum rule nesting depth
  -o file        Output file, - for stdout
  -width w -depth-y d
                 Build one w x d footprint at the origin
  -debug         Enable debug logging

Examples:
  bzwgen generate -config city.yaml -o city.bzw
  bzwgen generate -grammar house.grammar -rule house -width 20 -depth-y 12
  bzwgen check house.grammar
  bzwgen floor -a 0,0 -b 200,200 -step 10 -matref grass`)
}
