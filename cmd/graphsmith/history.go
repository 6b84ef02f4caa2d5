package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past pipeline runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := requireHistory(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := store.List(limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN ID\tSTATUS\tTOKENS\tDURATION\tCREATED\tREQUEST")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.0fms\t%s\t%s\n",
				rec.RunID, rec.Status,
				rec.InputTokens+rec.OutputTokens,
				rec.DurationMs,
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				ellipsize(rec.Request, 60),
			)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run, including its workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := requireHistory(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := store.Get(args[0])
		if err == history.ErrNotFound {
			return fmt.Errorf("no run with id %s", args[0])
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// requireHistory opens the configured store, failing when persistence is
// not configured at all.
func requireHistory(cmd *cobra.Command) (history.Store, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openHistory(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("no history database configured; pass --history or set history.path")
	}
	return store, closeStore, nil
}

func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyListCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
}
