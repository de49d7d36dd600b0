package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/themecheck/internal/model"
)

// EnvPrefix prefixes every environment override (THEMECHECK_POLICY_MIN_EVIDENCE_PIECES)
const EnvPrefix = "THEMECHECK"

// Load resolves the configuration from defaults, the config file already
// read into v, THEMECHECK_* environment variables and bound flags.
// The policy is validated; an invalid policy returns an error wrapping
// model.ErrInvalidPolicy.
func Load(v *viper.Viper) (*model.Config, error) {
	if err := SetDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("similarity.api_key", EnvPrefix+"_SIMILARITY_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	cfg := &model.Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		authorityWeightsHook(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults registers every leaf of model.DefaultConfig as a viper default,
// so each option is individually overridable from the environment
func SetDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
	// Keys omitted from the marshaled defaults still need registering for env lookup
	for _, key := range []string{
		"similarity.api_key",
		"similarity.base_url",
		"similarity.http_proxy",
		"similarity.https_proxy",
		"similarity.no_proxy",
	} {
		v.SetDefault(key, "")
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, value := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := value.(map[string]any); ok && len(sub) > 0 {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = value
	}
	return out
}

// authorityWeightsHook decodes a source type -> weight table, accepting
// numeric strings from the environment
func authorityWeightsHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(model.AuthorityWeights{})
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		raw, err := cast.ToStringMapE(data)
		if err != nil {
			return nil, fmt.Errorf("authority_weights: %w", err)
		}
		table := make(map[string]float64, len(raw))
		for k, value := range raw {
			w, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, fmt.Errorf("authority_weights.%s: %w", k, err)
			}
			table[k] = w
		}
		return model.ParseAuthorityWeights(table)
	}
}
