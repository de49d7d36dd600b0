package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/themecheck/internal/config"
	"github.com/ppiankov/themecheck/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"paris_france", "paris_france"},
		{"São Paulo", "São-Paulo"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  ..hidden  ", "hidden"},
		{"", "destination"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}

	long := sanitizeFilename(strings.Repeat("a", 150))
	assert.Len(t, long, 100)
}

func TestReportSlug(t *testing.T) {
	assert.Equal(t, "kyoto", reportSlug(&model.DestinationReport{DestinationID: "kyoto", DestinationName: "Kyoto, Japan"}))
	assert.Equal(t, "kyoto_japan", reportSlug(&model.DestinationReport{DestinationName: "Kyoto, Japan"}))
}

func TestWriteDefaultConfig_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, model.DefaultConfig().Cache, cfg.Cache)

	assert.Error(t, writeDefaultConfig(path), "an existing file is never overwritten")
}

func TestWriteDefaultConfig_MissingDir(t *testing.T) {
	err := writeDefaultConfig(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyNegatedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("no-destination-mention", false, "")
	flags.Bool("no-source-diversity", false, "")
	flags.Bool("no-semantic", false, "")
	require.NoError(t, flags.Parse([]string{"--no-destination-mention", "--no-semantic=false"}))

	v := viper.New()
	applyNegatedFlags(flags, v)

	assert.True(t, v.IsSet("policy.require_destination_mention"))
	assert.False(t, v.GetBool("policy.require_destination_mention"))
	assert.False(t, v.IsSet("policy.enable_semantic_validation"), "explicit false leaves the policy alone")
	assert.False(t, v.IsSet("policy.require_source_diversity"))
}
