package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/simukka/trance/speech"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [script-file]",
	Short: "Show the lines and actions a script produces",
	Long: `Tokenize a script and print its teleprompter lines, the action list the
player will step through and any binaural hints. Reads stdin without a file.

Example:
  trance tokenize session.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	script, err := readScript(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Lines:")
	for i, line := range speech.Segments(script) {
		fmt.Fprintf(out, "  %3d  %s\n", i, line)
	}
	fmt.Fprintln(out, "Actions:")
	for i, a := range speech.Tokenize(script) {
		fmt.Fprintf(out, "  %3d  %s\n", i, a)
	}
	if hints := speech.BinauralHints(script); len(hints) > 0 {
		fmt.Fprintf(out, "Binaural hints: %v Hz\n", hints)
	}
	return nil
}

func readScript(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}
