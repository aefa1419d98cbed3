package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lens-backend/internal/matching"
)

var processCmd = &cobra.Command{
	Use:   "process <candidate-id>",
	Short: "Extract text from an uploaded document and run structured extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.Processor.ProcessDocument(cmd.Context(), args[0])
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("processing failed: %s", res.Error)
		}
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rate a processed candidate against a project's requirements",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := matching.Request{}
		req.CandidateID, _ = cmd.Flags().GetString("candidate")
		req.ProjectID, _ = cmd.Flags().GetString("project")
		req.FilterGroupID, _ = cmd.Flags().GetString("filter-group")
		req.PositionID, _ = cmd.Flags().GetString("position")

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Engine.MatchCandidate(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	matchCmd.Flags().String("candidate", "", "candidate file id")
	matchCmd.Flags().String("project", "", "project id")
	matchCmd.Flags().String("filter-group", "", "evaluate against this requirement group only")
	matchCmd.Flags().String("position", "", "evaluate against this position's requirements")

	rootCmd.AddCommand(processCmd, matchCmd)
}
