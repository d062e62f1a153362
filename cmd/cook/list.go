package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imagvfx/cook/spool"
)

var (
	listOwner  string
	listID     string
	listAfter  int
	listPaused bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs in the farm",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var pauseCmd = &cobra.Command{
	Use:   "pause ORDER",
	Short: "Pause a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, args[0], true)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume ORDER",
	Short: "Resume a paused job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, args[0], false)
	},
}

func init() {
	listCmd.Flags().StringVar(&listOwner, "owner", "", "show jobs of the owner only")
	listCmd.Flags().StringVar(&listID, "id", "", "show the job only")
	listCmd.Flags().IntVar(&listAfter, "after", 0, "show jobs spooled after the job order")
	listCmd.Flags().BoolVar(&listPaused, "paused", false, "show paused jobs only")
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := spool.Dial(cfg.Farm.Addr)
	if err != nil {
		return err
	}
	defer c.Close()
	f := spool.JobFilter{ID: listID, Owner: listOwner, After: listAfter}
	if listPaused {
		f.Paused = &listPaused
	}
	jobs, err := c.Jobs(cmd.Context(), f)
	if err != nil {
		return err
	}
	printJobs(cmd.OutOrStdout(), jobs)
	return nil
}

func printJobs(w io.Writer, jobs []spool.JobInfo) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "no job to show")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s %s %s %s %s", cutOrFill("ORDER", 6), cutOrFill("OWNER", 10), cutOrFill("PRIORITY", 8), cutOrFill("TASKS", 5), "TITLE")))
	for _, j := range jobs {
		title := j.Title
		if j.Paused {
			title += " " + pausedStyle.Render("(paused)")
		}
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			cutOrFill(strconv.Itoa(j.Order), 6),
			cutOrFill(j.Owner, 10),
			cutOrFill(strconv.Itoa(j.Priority), 8),
			cutOrFill(strconv.Itoa(j.Tasks), 5),
			title,
		)
	}
}

func setPaused(cmd *cobra.Command, arg string, paused bool) error {
	order, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid job order: %v", arg)
	}
	c, err := spool.Dial(cfg.Farm.Addr)
	if err != nil {
		return err
	}
	defer c.Close()
	err = c.Pause(cmd.Context(), order, paused)
	if err != nil {
		return err
	}
	logger.Info("job updated", "order", order, "paused", paused)
	return nil
}
