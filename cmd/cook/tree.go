package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imagvfx/cook/farm"
)

var treeCmds bool

var treeCmd = &cobra.Command{
	Use:   "tree GRAPH",
	Short: "Show the task tree a graph compiles into",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().BoolVar(&treeCmds, "cmds", false, "show commands of tasks")
}

func runTree(cmd *cobra.Command, args []string) error {
	cc, err := compileFile(args[0], cfg)
	if err != nil {
		return err
	}
	printTree(cmd.OutOrStdout(), cc.Job, treeCmds)
	return nil
}

// printTree prints the job's task tree.
// A task shared by several parents is printed fully only at its first appearance.
func printTree(w io.Writer, j *farm.Job, withCmds bool) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(j.Title), idStyle.Render(fmt.Sprintf("(%d tasks)", len(j.Init().Tasks()))))
	seen := make(map[*farm.Task]bool)
	printSubtasks(w, j.Task, "", seen, withCmds)
}

func printSubtasks(w io.Writer, t *farm.Task, prefix string, seen map[*farm.Task]bool, withCmds bool) {
	for i, sub := range t.Subtasks {
		last := i == len(t.Subtasks)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}
		line := sub.Title
		if t.SerialSubtasks {
			line = fmt.Sprintf("%d. %s", i+1, line)
		}
		if sub.Expands() {
			line += " " + expandStyle.Render("[expand]")
		}
		if seen[sub] {
			fmt.Fprintf(w, "%s%s %s\n", branchStyle.Render(prefix+branch), line, idStyle.Render("=> "+string(sub.ID)))
			continue
		}
		seen[sub] = true
		fmt.Fprintf(w, "%s%s %s\n", branchStyle.Render(prefix+branch), line, idStyle.Render(string(sub.ID)))
		if withCmds {
			for _, c := range sub.Cmds {
				fmt.Fprintf(w, "%s%s\n", branchStyle.Render(prefix+indent+"$ "), cmdStyle.Render(strings.Join(c.Argv, " ")))
			}
		}
		printSubtasks(w, sub, prefix+indent, seen, withCmds)
	}
}
