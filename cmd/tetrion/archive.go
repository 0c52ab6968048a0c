package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

var (
	flagOutput string
	flagKeep   bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive <file>",
	Short: "Compress a recording with zstd",
	Long: `Compress a recording into <file>` + recording.ArchiveExtension + `.

The header is verified before compressing. The original file is removed
unless --keep is given, and the database entry follows the file.

Examples:
  tetrion archive game.rec
  tetrion archive game.rec --keep -o backup/game.rec.zst`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		src := args[0]
		dst := flagOutput
		if dst == "" {
			dst = src + recording.ArchiveExtension
		}
		runConvert(src, dst, recording.Archive)
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <file" + recording.ArchiveExtension + ">",
	Short: "Decompress an archived recording",
	Long: `Decompress an archived recording and check that the result parses.

The archive is removed unless --keep is given, and the database entry
follows the file.

Examples:
  tetrion unarchive game.rec.zst
  tetrion unarchive game.rec.zst -o /tmp/game.rec --keep`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		src := args[0]
		if !recording.IsArchive(src) {
			fatal("%s does not end in %s", src, recording.ArchiveExtension)
		}
		dst := flagOutput
		if dst == "" {
			dst = strings.TrimSuffix(src, recording.ArchiveExtension)
		}
		runConvert(src, dst, recording.Unarchive)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{archiveCmd, unarchiveCmd} {
		cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output path")
		cmd.Flags().BoolVar(&flagKeep, "keep", false, "Keep the input file")
	}
}

// runConvert writes src to dst with convert, removes src unless --keep is
// set and points the database entry at the new file.
func runConvert(src, dst string, convert func(src, dst string) error) {
	cfg := loadConfig()
	logger := newLogger(cfg, os.Stderr)

	if err := convert(src, dst); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wrote %s\n", dst)
	if flagKeep {
		return
	}
	if err := os.Remove(src); err != nil {
		fatal("cannot remove %s: %v", src, err)
	}

	store := openStore(cfg, false)
	if store == nil {
		return
	}
	defer closeStore(store)
	if err := moveIndexed(store, src, dst); err != nil {
		logger.Warn("could not update recording index", "path", dst, "err", err)
	}
}

// moveIndexed updates the path of the recording at src if it is indexed.
func moveIndexed(store *storage.Store, src, dst string) error {
	src, err := filepath.Abs(config.ExpandHome(src))
	if err != nil {
		return err
	}
	dst, err = filepath.Abs(config.ExpandHome(dst))
	if err != nil {
		return err
	}
	entry, err := store.RecordingByPath(src)
	if err != nil || entry == nil {
		return err
	}
	return store.MoveRecording(entry.ID, dst)
}
