package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imagvfx/cook"
)

var (
	chunksPacketSize int
	chunksName       string
)

var chunksCmd = &cobra.Command{
	Use:   "chunks START END",
	Short: "Show how a range is chunked",
	Args:  cobra.ExactArgs(2),
	RunE:  runChunks,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Show requirement profiles and their services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range cfg.ProfileNames() {
			svc, err := cfg.ProfileService(name)
			if err != nil {
				return fmt.Errorf("profile %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(cutOrFill(name, 16)), svc)
		}
		return nil
	},
}

func init() {
	chunksCmd.Flags().IntVar(&chunksPacketSize, "packet-size", 1, "number of items in a chunk")
	chunksCmd.Flags().StringVar(&chunksName, "name", "chunk", "node name of chunk titles")
}

func runChunks(cmd *cobra.Command, args []string) error {
	start, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid start: %v", args[0])
	}
	end, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid end: %v", args[1])
	}
	chunks := cook.PlanChunks(start, end, chunksPacketSize)
	if chunks == nil {
		return fmt.Errorf("nothing to chunk: %d-%d by %d", start, end, chunksPacketSize)
	}
	for _, c := range chunks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", idStyle.Render(cutOrFill(strconv.Itoa(c.Iteration), 4)), cook.ChunkTitle(chunksName, c))
	}
	return nil
}
