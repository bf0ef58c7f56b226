package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chembfn/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or print the molecules of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(cfg.HistoryDB())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		e, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		for i, m := range e.Molecules {
			fmt.Fprintf(out, "%s\t%d\n", m, i+1)
		}
		return nil
	}

	entries, err := store.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs yet")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "WHEN", "MODEL", "METHOD", "N", "PROMPT")
	for _, e := range entries {
		t.Row(e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Model, e.Method, strconv.Itoa(len(e.Molecules)), e.Prompt)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}
