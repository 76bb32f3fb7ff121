// Command lexigraph ingests plain-text documents from a directory
// into a durable term index and answers "which documents contain this
// term" queries against it.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := newLogger()
	defer log.Sync()

	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(os.Args[2:], log)
	case "query":
		err = runQuery(os.Args[2:], log)
	case "stats":
		err = runStats(os.Args[2:], log)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "lexigraph: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: lexigraph <command> [flags]

commands:
  index  --root <dir>  ingest .txt documents from a directory
  query  <term>         print the paths of documents containing term
  stats                 print page cache and index statistics`)
}
