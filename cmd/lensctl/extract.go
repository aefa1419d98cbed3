package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lens-backend/internal/summaries"
)

// extractCmd runs the full ingestion pipeline on a local file. With no
// DATABASE_URL everything stays in memory, which makes it a quick way to try
// prompts and decoders against real resumes.
var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Upload a local resume, process it, and print the extracted text and summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetString("project")
		path := args[0]

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		file, err := a.Candidates.Upload(cmd.Context(), projectID, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), f)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		res := a.Processor.ProcessDocument(cmd.Context(), file.ID)
		if !res.Success {
			return fmt.Errorf("processing failed: %s", res.Error)
		}

		processed, err := a.Files.GetByID(cmd.Context(), file.ID)
		if err != nil {
			return err
		}
		out := map[string]any{
			"candidate_id":     processed.ID,
			"raw_text":         processed.RawText,
			"parsed_data":      processed.ParsedData,
			"extraction_error": processed.ExtractionError,
		}
		summary, err := a.Summaries.GetByCandidate(cmd.Context(), file.ID)
		switch {
		case err == nil:
			out["summary"] = summary
		case !errors.Is(err, summaries.ErrNotFound):
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	extractCmd.Flags().String("project", "local", "project id used for position suggestions")
	rootCmd.AddCommand(extractCmd)
}
