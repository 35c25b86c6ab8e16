package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var invokePayload string

var invokeCmd = &cobra.Command{
	Use:   "invoke [payload]",
	Short: "Send a test payload to the deployed runtime",
	Long: `Send a single data-plane request to the deployed runtime and print
the response. This exercises the full invoke path, including the
permissions granted at deploy time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokePayload, "payload", "p", "",
		"JSON payload to send (default: read from the positional argument)")
}

func runInvoke(cmd *cobra.Command, args []string) error {
	payload := invokePayload
	if payload == "" && len(args) > 0 {
		payload = args[0]
	}
	if payload == "" {
		return fmt.Errorf("a payload is required (positional argument or --payload)")
	}

	_, props, _, err := buildRuntime()
	if err != nil {
		return err
	}

	store := &deploy.FileStateStore{Path: statePath()}
	state, err := store.Load()
	if err != nil {
		return err
	}
	if len(state.Resources) == 0 {
		return fmt.Errorf("no deployed resources; run apply first")
	}

	ctx := cmd.Context()
	invoker, err := deploy.NewInvoker(ctx, props.Region)
	if err != nil {
		return err
	}

	result, err := invoker.Invoke(ctx, state, []byte(payload))
	if err != nil {
		return err
	}
	if result.SessionID != "" {
		fmt.Fprintf(os.Stderr, "session: %s\n", result.SessionID)
	}
	fmt.Println(string(result.Payload))
	return nil
}
