package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	schemafiles "github.com/jonathan/job-recommender/schemas"

	"github.com/jonathan/job-recommender/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a postings JSON file against a JSON Schema",
	Long: `Validates a JSON file against one of the bundled schemas (--kind raw or ranked)
or against a schema file on disk (--schema).`,
	Example: `  job_agent validate --json data/raw.json
  job_agent validate --kind ranked --json out/jobs.json
  job_agent validate --schema schemas/raw_postings.schema.json --json data/raw.json`,
	RunE: runValidate,
}

var (
	validateJSONPath   string
	validateSchemaPath string
	validateKind       string
)

func init() {
	validateCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to the JSON file to validate (required)")
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a JSON Schema file (overrides --kind)")
	validateCmd.Flags().StringVar(&validateKind, "kind", "raw", "Bundled schema to use: raw or ranked")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if validateSchemaPath != "" {
		schemaPath := validateSchemaPath
		if resolved := schemas.ResolveSchemaPath(schemaPath); resolved != "" {
			schemaPath = resolved
		}
		err = schemas.ValidateJSON(schemaPath, validateJSONPath)
	} else {
		var name string
		switch validateKind {
		case "raw":
			name = schemafiles.RawPostings
		case "ranked":
			name = schemafiles.RankedPostings
		default:
			return fmt.Errorf("unknown --kind %q (want raw or ranked)", validateKind)
		}
		data, readErr := os.ReadFile(validateJSONPath)
		if readErr != nil {
			return fmt.Errorf("failed to read JSON file: %w", readErr)
		}
		err = schemas.Validate(name, data)
	}

	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %v", ve)
		return fmt.Errorf("%s has %d schema violation(s)", validateJSONPath, len(ve.Errors))
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ Validation passed")
	return nil
}
