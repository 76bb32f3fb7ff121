package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/index"
)

func runQuery(args []string, log *zap.Logger) error {
	fs := pflag.NewFlagSet("query", pflag.ExitOnError)
	configPath := fs.String("config", "lexigraph.hujson", "path to a hujson config file")
	interactive := fs.Bool("interactive", false, "start a readline-style interactive query shell")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store, idx, err := openIndex(cfg, log)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	if *interactive {
		return runInteractiveQuery(idx)
	}

	remaining := fs.Args()
	if len(remaining) != 1 {
		return fmt.Errorf("usage: lexigraph query [--interactive] <term>")
	}
	return printResults(idx, remaining[0])
}

func printResults(idx *index.Index, term string) error {
	paths, err := idx.Search(term)
	if err != nil {
		fmt.Println("(no results)")
		return nil
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// runInteractiveQuery replaces the teacher's bufio.Scanner REPL loop
// with a readline-style prompt (history, line editing) for this one
// interactive entry point.
func runInteractiveQuery(idx *index.Index) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("lexigraph interactive query shell — type a term, or 'exit' to quit")
	for {
		text, err := line.Prompt("lexigraph> ")
		if err != nil {
			break
		}
		term := strings.TrimSpace(text)
		if term == "" {
			continue
		}
		if term == "exit" || term == "quit" {
			break
		}
		line.AppendHistory(text)

		if err := printResults(idx, term); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	return nil
}
