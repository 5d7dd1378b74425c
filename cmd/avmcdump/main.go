// Copyright 2024 The Asteria-Go Authors
// This file is part of Asteria.

// Command avmcdump disassembles a compiled AVMC queue: one row per node,
// showing its metadata version, header-slot count, and source location
// (when the node carries one).
//
// Usage:
//
//	avmcdump [flags] <demo>
//
// Flags:
//
//	-color    Force colored output (default: auto)
//	-version  Print version and exit
//
// A real front end (lexer/parser/lowering pass) is out of this module's
// scope, so <demo> selects one of a handful of programs built directly
// from package air's node set, exercising the disassembler against
// something concrete instead of against stdin source text.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
)

const version = "0.1.0"

func main() {
	var (
		forceColor = flag.Bool("color", false, "Force colored output")
		ver        = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *ver {
		fmt.Printf("avmcdump %s\n", version)
		os.Exit(0)
	}
	if *forceColor {
		color.NoColor = false
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: avmcdump [flags] <demo>")
		os.Exit(1)
	}

	q, ok := demos[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown demo %q (available: %s)\n", flag.Arg(0), demoNames())
		os.Exit(1)
	}

	dump(q())
}

var demos = map[string]func() *avmc.Queue{
	"constant-return": func() *avmc.Queue {
		body := air.Block{
			&air.PushConstant{Value: base.Int(42)},
			&air.ReturnStatement{},
		}
		q := avmc.NewQueue()
		body.Solidify(q)
		return q
	},
	"throw": func() *avmc.Queue {
		sloc := base.NewSourceLocation("demo.ast", 3, 5)
		body := air.Block{
			&air.PushConstant{Value: base.Str("boom")},
			&air.ThrowStatement{Sloc: sloc},
		}
		q := avmc.NewQueue()
		body.Solidify(q)
		return q
	},
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	return fmt.Sprintf("%v", names)
}

func dump(q *avmc.Queue) {
	bold := color.New(color.Bold)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "meta_ver", "n_headers", "source"})
	table.SetAutoWrapText(false)

	for i, n := range q.Nodes() {
		sloc := "-"
		if s, ok := n.SourceLocation(); ok {
			sloc = s.String()
		}
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", n.MetaVer()),
			fmt.Sprintf("%d", n.NHeaders()),
			sloc,
		})
	}

	bold.Printf("queue: %d nodes, %d/%d slots used\n", q.Len(), q.Used(), q.Capacity())
	table.Render()
}
