package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagScoresLimit int
	flagClear       bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the top scores of recorded games.

Examples:
  tetrion scores
  tetrion scores -n 25
  tetrion scores --clear`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVarP(&flagScoresLimit, "limit", "n", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all scores")
}

func runScores(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := openStore(cfg, true)
	defer closeStore(store)

	if flagClear {
		if err := store.ClearScores(); err != nil {
			fatal("cannot clear scores: %v", err)
		}
		fmt.Println("Scores cleared.")
		return
	}

	scores, err := store.TopScores(flagScoresLimit)
	if err != nil {
		fatal("cannot retrieve scores: %v", err)
	}

	fmt.Println("High Scores - Tetrion")
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'tetrion play' to set the first high score!")
		return
	}

	// Print header
	fmt.Printf("  %-4s  %-10s  %-5s  %-5s  %-12s  %s\n", "Rank", "Score", "Level", "Lines", "Player", "Date")
	fmt.Printf("  %-4s  %-10s  %-5s  %-5s  %-12s  %s\n", "----", "-----", "-----", "-----", "------", "----")

	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-10d  %-5d  %-5d  %-12s  %s\n", i+1, entry.Score, entry.Level, entry.Lines, entry.Player, dateStr)
	}

	if stats, err := store.GetStats(); err == nil {
		fmt.Println()
		fmt.Printf("Best: %d  Games: %d  Lines: %d\n", stats.HighScore, stats.Recordings, stats.TotalLines)
	}
}
