package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output in JSON format")
}

func runPlan(_ *cobra.Command, _ []string) error {
	_, _, rt, err := buildRuntime()
	if err != nil {
		return err
	}
	g, err := rt.Synthesize()
	if err != nil {
		return err
	}

	store := &deploy.FileStateStore{Path: statePath()}
	prior, err := store.Load()
	if err != nil {
		return err
	}

	result, err := deploy.Plan(g, prior)
	if err != nil {
		return err
	}

	if planJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, c := range result.Changes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Action, c.Kind, c.Name, c.Detail)
	}
	w.Flush()
	fmt.Println()
	fmt.Println(result.Summary)
	return nil
}
