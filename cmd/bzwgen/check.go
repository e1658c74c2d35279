package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Faultbox/bzwgen/internal/grammar"
)

func cmdCheck(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Print every product")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: bzwgen check [-v] <file.grammar>")
	}

	rules, err := grammar.ParseFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	for _, name := range rules.Names() {
		r, _ := rules.Rule(name)
		guard := ""
		if r.Guard != nil {
			guard = " " + r.Guard.String()
		}
		fmt.Fprintf(stdout, "%-20s %d product(s)%s\n", name, len(r.Products), guard)
		if !*verbose {
			continue
		}
		for _, p := range r.Products {
			fmt.Fprintf(stdout, "  -> %g:", p.Weight)
			if p.Guard != nil {
				fmt.Fprintf(stdout, " %s", p.Guard)
			}
			for _, op := range p.Ops {
				fmt.Fprintf(stdout, " %s", grammar.FormatOperation(op))
			}
			fmt.Fprintln(stdout)
		}
	}
	fmt.Fprintf(stdout, "ok: %d rules\n", rules.Len())
	return nil
}
