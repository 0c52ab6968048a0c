package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/recording"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show a recording's header",
	Long: `Print the header of a recording: format version, checksum, one line per
tetrion and the additional information stored with the game.

Examples:
  tetrion info game.rec
  tetrion info game.rec.zst`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func runInfo(_ *cobra.Command, args []string) {
	reader, err := recording.Load(args[0])
	if err != nil {
		fatal("%v", err)
	}
	if err := printInfo(os.Stdout, args[0], reader); err != nil {
		fatal("%v", err)
	}
}

func printInfo(w io.Writer, path string, reader *recording.Reader) error {
	h := reader.Header()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Version:\t%d\n", h.Version)
	fmt.Fprintf(tw, "Checksum:\t%s\n", h.Checksum)
	fmt.Fprintf(tw, "Records:\t%d\n", reader.NumRecords())
	fmt.Fprintf(tw, "Snapshots:\t%d\n", len(reader.Snapshots()))
	fmt.Fprintf(tw, "Last step:\t%d\n", reader.LastStep())
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Tetrion\tSeed\tStarting level")
	for i, t := range h.Tetrions {
		fmt.Fprintf(tw, "%d\t%d\t%d\n", i, t.Seed, t.StartingLevel)
	}

	if info := h.Information; info != nil && info.Len() > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Key\tType\tValue")
		for _, key := range info.Keys() {
			v, _ := info.Get(key)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", key, v.Type(), v)
		}
	}
	return tw.Flush()
}
