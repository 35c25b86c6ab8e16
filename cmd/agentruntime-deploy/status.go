package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of deployed resources",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, props, _, err := buildRuntime()
	if err != nil {
		return err
	}

	store := &deploy.FileStateStore{Path: statePath()}
	state, err := store.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := deploy.NewRealClient(ctx, props.Region, props.AccountID, nil)
	if err != nil {
		return err
	}

	result, err := deploy.Status(ctx, client, state)
	if err != nil {
		return err
	}

	if statusJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Deployment %q: %s\n", cfg.Deployment, result.Status)
	if len(result.Resources) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "KIND\tNAME\tSTATUS\n")
		for _, r := range result.Resources {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Kind, r.Name, r.Status)
		}
		w.Flush()
	}
	return nil
}
