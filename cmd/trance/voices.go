package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simukka/trance/sched"
	"github.com/simukka/trance/speech"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the local speech command",
	RunE: func(cmd *cobra.Command, args []string) error {
		loop := sched.NewLoop()
		defer loop.Close()
		c, err := speech.NewCommand(loop, logger)
		if err != nil {
			return err
		}
		voices := c.Voices()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d voices\n", c.Name(), len(voices))
		for _, v := range voices {
			mark := " "
			if v.Default {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-24s %-8s %s\n", mark, v.Name, v.Lang, v.URI)
		}
		return nil
	},
}
