package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatlens/chatlens/internal/dataset"
)

var (
	validateConfigPath      string
	validateRubricPath      string
	validateTranscriptsPath string
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config, rubric, and transcript files without calling any provider",
		Args:  cobra.NoArgs,
		RunE:  validateCommandE,
	}

	cmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "Path to config YAML")
	cmd.Flags().StringVarP(&validateRubricPath, "rubric", "r", "", "Path to rubric YAML")
	cmd.Flags().StringVarP(&validateTranscriptsPath, "transcripts", "t", "", "Path to transcripts CSV")

	return cmd
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if validateConfigPath == "" && validateRubricPath == "" && validateTranscriptsPath == "" {
		return fmt.Errorf("nothing to validate: pass --config, --rubric, or --transcripts")
	}

	if validateConfigPath != "" {
		if _, err := loadConfig(validateConfigPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "config %s: ok\n", validateConfigPath)
	}

	if validateRubricPath != "" {
		r, err := loadRubric(validateRubricPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "rubric %s: ok (%d dimensions)\n", validateRubricPath, len(r.DimensionKeys()))
	}

	if validateTranscriptsPath != "" {
		transcripts, err := dataset.LoadTranscripts(validateTranscriptsPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "transcripts %s: ok (%d conversations)\n", validateTranscriptsPath, len(transcripts))
	}

	return nil
}
