package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Generate a workflow graph from a plain-language request",
	Long: `Generate runs the full pipeline for one request and prints the resulting
graph as JSON. The request is taken from the arguments, or from --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := requestText(cmd, args)
		if err != nil {
			return err
		}

		pipeline, _, closeStore, err := buildPipeline(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		req := graphsmith.Request{Text: text}
		if path, _ := cmd.Flags().GetString("existing"); path != "" {
			existing, err := loadGraph(path)
			if err != nil {
				return fmt.Errorf("load existing workflow: %w", err)
			}
			req.Existing = existing
		}

		var drain sync.WaitGroup
		if stream, _ := cmd.Flags().GetBool("stream"); stream {
			events := make(chan graphsmith.Event, 16)
			req.Progress = events
			drain.Add(1)
			go func() {
				defer drain.Done()
				printProgress(events)
			}()
			defer func() {
				close(events)
				drain.Wait()
			}()
		}

		result, err := pipeline.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result.Workflow, "", "  ")
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			fmt.Println(string(out))
			return nil
		}
		return os.WriteFile(output, append(out, '\n'), 0o644)
	},
}

func requestText(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("provide a request as an argument or via --file")
	}
	return strings.Join(args, " "), nil
}

func loadGraph(path string) (*workflow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g workflow.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// printProgress renders stage transitions and synthesis text to stderr
// so stdout stays valid JSON.
func printProgress(events <-chan graphsmith.Event) {
	for ev := range events {
		switch ev.Type {
		case graphsmith.EventProgress:
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", ev.StepNumber, ev.TotalSteps, ev.StepName)
		case graphsmith.EventChunk:
			if !ev.Done {
				fmt.Fprint(os.Stderr, ev.Content)
			} else {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("file", "", "Read the request from a file")
	generateCmd.Flags().String("existing", "", "Path to an existing workflow JSON to modify")
	generateCmd.Flags().StringP("output", "o", "", "Write the graph to a file instead of stdout")
	generateCmd.Flags().Bool("stream", false, "Print stage progress and synthesis text to stderr")
}
