package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/themecheck/internal/cache"
	"github.com/ppiankov/themecheck/internal/config"
	"github.com/ppiankov/themecheck/internal/logging"
	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/model"
	"github.com/ppiankov/themecheck/internal/pipeline"
	"github.com/ppiankov/themecheck/internal/similarity"
)

// policyFlagKeys maps policy flags to their config keys
var policyFlagKeys = map[string]string{
	"min-evidence":   "policy.min_evidence_pieces",
	"max-evidence":   "policy.max_evidence_pieces",
	"min-sources":    "policy.min_unique_sources",
	"max-per-source": "policy.max_evidence_per_source",
	"min-authority":  "policy.min_authority_score",
	"min-relevance":  "policy.min_relevance_score",
}

// negatedPolicyFlagKeys switch a policy requirement off when set
var negatedPolicyFlagKeys = map[string]string{
	"no-destination-mention": "policy.require_destination_mention",
	"no-source-diversity":    "policy.require_source_diversity",
	"no-semantic":            "policy.enable_semantic_validation",
}

func addPolicyFlags(cmd *cobra.Command) {
	def := model.DefaultPolicy()
	flags := cmd.PersistentFlags()

	flags.Int("min-evidence", def.MinEvidencePieces, "minimum curated evidence pieces for a validated theme")
	flags.Int("max-evidence", def.MaxEvidencePieces, "maximum evidence pieces kept per theme")
	flags.Int("min-sources", def.MinUniqueSources, "minimum distinct source domains")
	flags.Int("max-per-source", def.MaxEvidencePerSource, "maximum evidence pieces kept per source domain")
	flags.Float64("min-authority", def.MinAuthorityScore, "minimum authority score for an evidence piece")
	flags.Float64("min-relevance", def.MinRelevanceScore, "minimum relevance score for an evidence piece")
	flags.Bool("no-destination-mention", false, "do not require evidence to mention the destination")
	flags.Bool("no-source-diversity", false, "do not require source diversity")
	flags.Bool("no-semantic", false, "ignore semantic similarity values")

	for name, key := range policyFlagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// applyNegatedFlags turns set --no-* flags into explicit overrides
func applyNegatedFlags(flags *pflag.FlagSet, v *viper.Viper) {
	for name, key := range negatedPolicyFlagKeys {
		flag := flags.Lookup(name)
		if flag != nil && flag.Changed && flag.Value.String() == "true" {
			v.Set(key, false)
		}
	}
}

// loadConfig resolves the configuration for the running command
func loadConfig() (*model.Config, error) {
	applyNegatedFlags(rootCmd.PersistentFlags(), viper.GetViper())
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *slog.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
}

// buildPipeline wires the pipeline and its optional similarity enricher
func buildPipeline(cfg *model.Config, logger *slog.Logger, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	}

	if cfg.Similarity.Enabled {
		embedder, err := similarity.NewEmbedder(cfg.Similarity, logger)
		if err != nil {
			return nil, fmt.Errorf("similarity: %w", err)
		}

		var vectors *cache.VectorCache
		if cfg.Cache.Enabled {
			backend := cache.NewLayeredCache(cfg.Cache)
			vectors = cache.NewVectorCache(backend, cfg.Cache.DiskTTL)
		}

		opts = append(opts, pipeline.WithSimilarity(similarity.NewService(embedder, vectors, m, logger)))
	}

	return pipeline.NewPipeline(cfg, opts...)
}
