package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/recording"
)

var (
	flagPretty      bool
	flagEnsureASCII bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print a recording as JSON",
	Long: `Print the whole recording as one JSON document: header, additional
information, every input record and every snapshot.

Examples:
  tetrion dump game.rec --pretty
  tetrion dump game.rec --ensure-ascii > game.json`,
	Args: cobra.ExactArgs(1),
	Run:  runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&flagPretty, "pretty", false, "Indent the output")
	dumpCmd.Flags().BoolVar(&flagEnsureASCII, "ensure-ascii", false, "Escape every non-ASCII character")
}

func runDump(_ *cobra.Command, args []string) {
	reader, err := recording.Load(args[0])
	if err != nil {
		fatal("%v", err)
	}

	w := bufio.NewWriter(os.Stdout)
	if err := reader.Dump(w, recording.DumpOptions{Pretty: flagPretty, EnsureASCII: flagEnsureASCII}); err != nil {
		fatal("%v", err)
	}
	if err := w.Flush(); err != nil {
		fatal("%v", err)
	}
}
