package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/themecheck/internal/model"
)

const reportFooter = "_Generated by themecheck. Validation reflects the evidence supplied, not ground truth._"

// Renderer writes destination reports as JSON, Markdown and a stdout summary
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer that prints summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stdout}
}

// WithOutput returns a copy of the renderer printing summaries to w
func (r *Renderer) WithOutput(w io.Writer) *Renderer {
	cp := *r
	cp.out = w
	return &cp
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.DestinationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable summary of the report
func (r *Renderer) RenderMarkdown(report *model.DestinationReport, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats the report as Markdown
func (r *Renderer) Markdown(report *model.DestinationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Theme Validation: %s\n\n", report.DestinationName)
	fmt.Fprintf(&b, "- **Destination ID:** `%s`\n", report.DestinationID)
	fmt.Fprintf(&b, "- **Themes analyzed:** %d (validated %d, rejected %d, skipped %d)\n",
		report.TotalThemesAnalyzed, report.ThemesValidated, report.ThemesRejected, report.ThemesSkipped)
	fmt.Fprintf(&b, "- **Validation success rate:** %.1f%%\n", report.ValidationSuccessRate*100)
	fmt.Fprintf(&b, "- **Evidence:** %d pieces from %d unique sources (average quality %.2f)\n",
		report.TotalEvidencePieces, report.UniqueSourcesUsed, report.AverageEvidenceQuality)
	if report.ProcessingTime != nil {
		fmt.Fprintf(&b, "- **Processing time:** %.3fs\n", *report.ProcessingTime)
	}
	b.WriteString("\n")

	if len(report.Themes) > 0 {
		b.WriteString("## Themes\n\n")
		b.WriteString("| Theme | Category | Status | Initial | Adjusted | Δ | Included |\n")
		b.WriteString("|---|---|---|---:|---:|---:|:---:|\n")
		for _, t := range report.Themes {
			included := "no"
			if t.RecommendedForInclusion {
				included = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f | %+.2f | %s |\n",
				escapeCell(t.Theme), escapeCell(t.Category), t.Status,
				t.InitialConfidence, t.AdjustedConfidence, t.Adjustment, included)
		}
		b.WriteString("\n")
	}

	var gapped []model.ThemeEvidenceSet
	for _, set := range report.ThemeEvidence {
		if len(set.Gaps) > 0 {
			gapped = append(gapped, set)
		}
	}
	if len(gapped) > 0 {
		b.WriteString("## Evidence Gaps\n\n")
		for _, set := range gapped {
			fmt.Fprintf(&b, "### %s\n\n", set.ThemeName)
			for _, g := range set.Gaps {
				fmt.Fprintf(&b, "- %s\n", g.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Evidence Quality\n\n")
	b.WriteString("| Tier | Pieces |\n|---|---:|\n")
	for _, tier := range model.AllQualityTiers() {
		fmt.Fprintf(&b, "| %s | %d |\n", tier, report.QualityDistribution[tier])
	}
	b.WriteString("\n")

	b.WriteString("## Source Types\n\n")
	b.WriteString("| Type | Pieces |\n|---|---:|\n")
	for _, st := range model.AllSourceTypes() {
		fmt.Fprintf(&b, "| %s | %d |\n", st, report.SourceDistribution[st])
	}
	b.WriteString("\n")

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(reportFooter + "\n")
	}

	return b.String()
}

// RenderSummary prints a one-line summary
func (r *Renderer) RenderSummary(report *model.DestinationReport) {
	_, _ = fmt.Fprintln(r.out, Summary(report))
}

// Summary formats the one-line report summary
func Summary(report *model.DestinationReport) string {
	return fmt.Sprintf("%s: %d/%d themes validated (%.0f%%), %d evidence pieces from %d sources, %d recommended",
		report.DestinationName,
		report.ThemesValidated,
		report.TotalThemesAnalyzed,
		report.ValidationSuccessRate*100,
		report.TotalEvidencePieces,
		report.UniqueSourcesUsed,
		len(report.IncludedThemes()),
	)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
