package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lens-backend/internal/queue"
)

var enqueueCmd = &cobra.Command{
	Use:       "enqueue <ingest|match>",
	Short:     "Send a job to the SQS queue for the worker",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{queue.KindIngest, queue.KindMatch},
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := queue.Message{Kind: args[0]}
		msg.FileID, _ = cmd.Flags().GetString("candidate")
		msg.ProjectID, _ = cmd.Flags().GetString("project")
		msg.FilterGroupID, _ = cmd.Flags().GetString("filter-group")
		msg.PositionID, _ = cmd.Flags().GetString("position")
		if err := msg.Validate(); err != nil {
			return err
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Enqueue(cmd.Context(), msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", msg.Kind, err)
		}
		cmd.Printf("enqueued %s job for %s\n", msg.Kind, msg.FileID)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().String("candidate", "", "candidate file id")
	enqueueCmd.Flags().String("project", "", "project id")
	enqueueCmd.Flags().String("filter-group", "", "requirement group id (match only)")
	enqueueCmd.Flags().String("position", "", "position id (match only)")
	rootCmd.AddCommand(enqueueCmd)
}
