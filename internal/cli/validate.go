package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON          string
	outMD            string
	timeout          time.Duration
	noFooter         bool
	similarityOn     bool
	classifyUntagged bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Validate the themes of one destination",
	Long: `Validate reads one destination input (.json, .yaml or .yml) and:
- Scores every evidence record for authority, relevance and quality
- Curates the strongest, most diverse evidence per theme
- Decides a validation status per theme with quality gates
- Adjusts each theme's confidence from its evidence outcome
- Writes a destination report

Example:
  themecheck validate barcelona.json
  themecheck validate barcelona.yaml --json report.json --md report.md
  themecheck validate barcelona.json --min-evidence 4 --no-destination-mention
  themecheck validate barcelona.json --similarity`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	// Output flags
	validateCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	validateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	validateCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	validateCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall validation timeout")
	validateCmd.Flags().BoolVar(&similarityOn, "similarity", false, "fill missing semantic similarity values with embeddings")
	validateCmd.Flags().BoolVar(&classifyUntagged, "classify-untagged", false, "classify records without a source type from their URL and title")
}

// applyRunFlags copies command-local flags into viper overrides
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("no-footer") && noFooter {
		viper.Set("output.include_footer", false)
	}
	if cmd.Flags().Changed("similarity") {
		viper.Set("similarity.enabled", similarityOn)
	}
	if cmd.Flags().Changed("classify-untagged") {
		viper.Set("sources.classify_untagged", classifyUntagged)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	applyRunFlags(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "Validating: %s\n", input)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Similarity: %v\n", cfg.Similarity.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	// Create pipeline
	p, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Validating themes...\n")
	}

	report, err := p.ValidateFile(ctx, input)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Analyzed %d themes (%d skipped)\n", report.TotalThemesAnalyzed, report.ThemesSkipped)
		fmt.Fprintf(os.Stderr, "✓ Kept %d evidence pieces from %d sources\n", report.TotalEvidencePieces, report.UniqueSourcesUsed)
		fmt.Fprintf(os.Stderr, "✓ Validated %d themes, %d recommended for inclusion\n", report.ThemesValidated, len(report.IncludedThemes()))
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
