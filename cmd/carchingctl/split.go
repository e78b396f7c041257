package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"carching-assistant/internal/pkg/textsplit"
)

var (
	splitMaxWords int
	splitMinWords int
)

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Show how a text file would be chunked for indexing",
	Long:  "Reads the file, or stdin when no file is given, and prints every chunk with its word count.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSplit,
}

func init() {
	splitCmd.Flags().IntVar(&splitMaxWords, "max-words", textsplit.DefaultMaxWords, "maximum words per chunk")
	splitCmd.Flags().IntVar(&splitMinWords, "min-words", textsplit.DefaultMinWords, "chunks below this are dropped")
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s failed: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input failed: %w", err)
	}

	chunks := textsplit.SplitChunks(string(data), splitMaxWords, splitMinWords)
	for _, c := range chunks {
		cmd.Printf("--- chunk %d (%d words)\n%s\n", c.Index, c.WordCount, c.Text)
	}
	cmd.Printf("%d chunks\n", len(chunks))
	return nil
}
