package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	schemafiles "github.com/jonathan/job-recommender/schemas"

	"github.com/jonathan/job-recommender/internal/export"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank already-scraped postings without touching the network",
	Long: `Reads raw postings from a JSON file, runs normalize -> deduplicate -> filter -> score -> rank
with the preferences and weights from the config, and writes the ranked list.

Input must match schemas/raw_postings.schema.json. JSON output is checked against
schemas/ranked_postings.schema.json.`,
	RunE: runRecommend,
}

var (
	recommendInput    string
	recommendOutput   string
	recommendFormat   string
	recommendRunStart string
	recommendTop      int
)

func init() {
	recommendCmd.Flags().StringVarP(&recommendInput, "in", "i", "", "Path to raw postings JSON file (required)")
	recommendCmd.Flags().StringVarP(&recommendOutput, "out", "o", "", "Output path (default: JSON to stdout)")
	recommendCmd.Flags().StringVar(&recommendFormat, "format", export.FormatJSON, "Output format: csv, json or excel")
	recommendCmd.Flags().StringVar(&recommendRunStart, "run-start", "", "Reference time for relative dates, RFC3339 (default: now)")
	recommendCmd.Flags().IntVar(&recommendTop, "top", 0, "Keep only the top N recommendations (0 keeps all)")

	if err := recommendCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(recommendInput)
	if err != nil {
		return fmt.Errorf("failed to read postings file: %w", err)
	}
	if err := schemas.Validate(schemafiles.RawPostings, data); err != nil {
		return fmt.Errorf("invalid postings file: %w", err)
	}
	var raw []types.RawPosting
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal postings JSON: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	opts := recommendOptions(cfg)
	if recommendRunStart != "" {
		opts.RunStart, err = time.Parse(time.RFC3339, recommendRunStart)
		if err != nil {
			return fmt.Errorf("invalid --run-start: %w", err)
		}
	}

	rec, err := pipeline.Recommend(raw, cfg.Preferences, opts)
	if err != nil {
		return err
	}
	ranked := rec.Ranked
	if recommendTop > 0 && len(ranked) > recommendTop {
		ranked = ranked[:recommendTop]
	}

	// keep stdout clean when it carries the document
	summary := cmd.OutOrStdout()
	if recommendOutput == "" {
		summary = cmd.ErrOrStderr()
	}
	observability.NewPrinter(summary).PrintRunStats(rec.Stats)

	if recommendOutput == "" {
		return writeRankedJSON(cmd.OutOrStdout(), ranked, rec.RunStart)
	}

	if err := export.WriteFile(recommendOutput, recommendFormat, ranked, rec.RunStart); err != nil {
		return err
	}
	if recommendFormat == export.FormatJSON {
		if out, err := os.ReadFile(recommendOutput); err == nil {
			checkRankedOutput(out)
		}
	}
	_, _ = fmt.Fprintf(summary, "Saved %d recommendations to %s\n", len(ranked), recommendOutput)
	return nil
}

func writeRankedJSON(w io.Writer, ranked []types.ScoredPosting, generatedAt time.Time) error {
	var buf bytes.Buffer
	if err := (export.JSONExporter{}).Export(&buf, ranked, generatedAt); err != nil {
		return err
	}
	checkRankedOutput(buf.Bytes())
	_, err := w.Write(buf.Bytes())
	return err
}

// checkRankedOutput logs schema drift in the produced document without failing.
func checkRankedOutput(doc []byte) {
	if err := schemas.Validate(schemafiles.RankedPostings, doc); err != nil {
		log.Printf("[CLI] Warning: output does not match the ranked postings schema: %v", err)
	}
}
