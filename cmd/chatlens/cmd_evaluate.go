package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/consolidation"
	"github.com/chatlens/chatlens/internal/dataset"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/providers"
	"github.com/chatlens/chatlens/internal/reporting"
	"github.com/chatlens/chatlens/internal/rubric"
)

// partialFailureError means the run completed but some transcripts failed.
type partialFailureError struct {
	failed int
	total  int
}

func (e *partialFailureError) Error() string {
	return fmt.Sprintf("%d of %d transcript(s) could not be evaluated", e.failed, e.total)
}

var (
	evaluateConfigPath string
	evaluateRubricPath string
	evaluateOutputPath string
	evaluateProviders  []string
	evaluateQuiet      bool
)

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <transcripts.csv>",
		Short: "Evaluate chat transcripts with the configured judge panel",
		Long: `Evaluate loads transcripts from a CSV export (columns: conversation_id,
role, message), scores each one with every enabled judge provider, and
prints a consolidated report per transcript.`,
		Args: cobra.ExactArgs(1),
		RunE: evaluateCommandE,
	}

	cmd.Flags().StringVarP(&evaluateConfigPath, "config", "c", "", "Path to config YAML (built-in defaults when omitted)")
	cmd.Flags().StringVarP(&evaluateRubricPath, "rubric", "r", "", "Path to rubric YAML (built-in customer-service rubric when omitted)")
	cmd.Flags().StringVarP(&evaluateOutputPath, "output", "o", "", "Write consolidated results as JSON to this file")
	cmd.Flags().StringSliceVar(&evaluateProviders, "providers", nil, "Restrict the panel to the named providers")
	cmd.Flags().BoolVarP(&evaluateQuiet, "quiet", "q", false, "Suppress per-transcript summaries")

	return cmd
}

func evaluateCommandE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(evaluateConfigPath)
	if err != nil {
		return err
	}
	r, err := loadRubric(evaluateRubricPath)
	if err != nil {
		return err
	}

	transcripts, err := dataset.LoadTranscripts(args[0])
	if err != nil {
		return err
	}
	if len(transcripts) == 0 {
		return fmt.Errorf("no transcripts found in %s", args[0])
	}

	creds, err := config.LoadCredentials(ctx)
	if err != nil {
		return err
	}
	registry, err := providers.NewRegistry(ctx, cfg, creds)
	if err != nil {
		return err
	}

	orch := consolidation.New(cfg, registry)

	var results []*models.ConsolidatedResult
	failed := 0
	for _, tr := range transcripts {
		req := models.NewEvaluationRequest(tr, r)
		req.Providers = evaluateProviders

		result, err := orch.Evaluate(ctx, req)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "evaluation of %s failed: %v\n", tr.ID, err)
			continue
		}
		results = append(results, result)

		if !evaluateQuiet {
			fmt.Println(reporting.FormatSummary(result))
		}
	}

	if len(results) > 1 {
		fmt.Println(reporting.FormatBatchSummary(results))
	}

	if evaluateOutputPath != "" && len(results) > 0 {
		if err := writeResults(evaluateOutputPath, results); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", evaluateOutputPath)
	}

	if failed > 0 {
		return &partialFailureError{failed: failed, total: len(transcripts)}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadRubric(path string) (*rubric.Rubric, error) {
	if path == "" {
		return rubric.Default(), nil
	}
	return rubric.Load(path)
}

func writeResults(path string, results []*models.ConsolidatedResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return reporting.WriteJSON(f, results)
}
