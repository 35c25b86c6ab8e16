package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create or update the runtime's AWS resources",
	RunE:  runApply,
}

// printEvent renders deploy progress: warnings and errors to stderr,
// everything else to stdout.
func printEvent(e deploy.Event) {
	switch e.Type {
	case deploy.EventWarning:
		fmt.Fprintf(os.Stderr, "Warning: %s\n", e.Message)
	case deploy.EventError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", e.Message)
	default:
		fmt.Println(e.Message)
	}
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg, props, rt, err := buildRuntime()
	if err != nil {
		return err
	}
	if warnings := rt.Warnings(); len(warnings) > 0 {
		fmt.Fprint(os.Stderr, agentruntime.FormatWarnings(warnings))
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

	ctx := cmd.Context()
	client, err := deploy.NewRealClient(ctx, props.Region, props.AccountID,
		deploy.ResourceTags(cfg.Deployment, rt.Name(), props.Tags))
	if err != nil {
		return err
	}

	state, applyErr := deploy.NewApplier(client, printEvent).Apply(ctx, cfg.Deployment, g, prior)

	// The state is saved even when apply fails partway, so the partial
	// deployment can be destroyed or resumed.
	if state != nil {
		if saveErr := store.Save(state); saveErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save state: %v\n", saveErr)
		}
	}
	return applyErr
}
