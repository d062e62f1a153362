package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imagvfx/cook/farm"
	"github.com/imagvfx/cook/spool"
)

var (
	submitDryRun   bool
	submitPaused   bool
	submitPriority string
)

var submitCmd = &cobra.Command{
	Use:   "submit GRAPH",
	Short: "Compile a graph and spool it to the farm",
	Long: `Compile a graph file into a job and spool it to the farm.
With --dry-run, the job script is written to stdout instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "print the job script instead of spooling")
	submitCmd.Flags().BoolVar(&submitPaused, "paused", false, "spool the job paused")
	submitCmd.Flags().StringVar(&submitPriority, "priority", "", "override priority of the job (low, normal, high)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cc, err := compileFile(args[0], cfg)
	if err != nil {
		return err
	}
	if submitPaused {
		cc.Job.Paused = true
	}
	if submitPriority != "" {
		cc.Job.Priority = farm.PriorityFromName(submitPriority)
	}

	var sp spool.Spooler
	if submitDryRun {
		sp = spool.DryRun{W: cmd.OutOrStdout()}
	} else {
		c, err := spool.Dial(cfg.Farm.Addr)
		if err != nil {
			return err
		}
		defer c.Close()
		sp = c
	}
	r, err := sp.Spool(cmd.Context(), cc.Job)
	if err != nil {
		return err
	}
	logger.Info("job spooled", "id", r.ID, "order", r.Order, "tasks", len(cc.Job.Tasks()))
	if !submitDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(fmt.Sprintf("[%d]", r.Order)), r.ID)
	}
	return nil
}
