package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var destroyForce bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the deployed resources",
	RunE:  runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyForce, "force", false,
		"Skip the confirmation prompt")
}

func runDestroy(cmd *cobra.Command, _ []string) error {
	cfg, props, _, err := buildRuntime()
	if err != nil {
		return err
	}

	store := &deploy.FileStateStore{Path: statePath()}
	state, err := store.Load()
	if err != nil {
		return err
	}
	if len(state.Resources) == 0 {
		fmt.Println("Nothing to destroy.")
		return nil
	}

	if !destroyForce {
		fmt.Printf("Destroy %d resource(s) of deployment %q? [y/N]: ",
			len(state.Resources), cfg.Deployment)
		var confirm string
		_, _ = fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Destroy cancelled")
			return nil
		}
	}

	ctx := cmd.Context()
	client, err := deploy.NewRealClient(ctx, props.Region, props.AccountID, nil)
	if err != nil {
		return err
	}

	remaining, destroyErr := deploy.NewDestroyer(client, printEvent).Destroy(ctx, state)
	if remaining == nil || len(remaining.Resources) == 0 {
		if rmErr := store.Remove(); rmErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not remove state file: %v\n", rmErr)
		}
		return destroyErr
	}
	if saveErr := store.Save(remaining); saveErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save state: %v\n", saveErr)
	}
	return destroyErr
}
