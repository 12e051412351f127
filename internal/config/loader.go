package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of all settings.
const envPrefix = "OPSPLAN"

// envKeys are the scalar settings that can be set from the environment
// without a config file, e.g. OPSPLAN_FACILITY_MAX_FACILITIES.
var envKeys = []string{
	"log.level",
	"log.format",
	"solver.time_limit",
	"solver.mip_rel_gap",
	"solver.threads",
	"solver.output",
	"solver.require_global",
	"pricing.price_index_budget",
	"pricing.units.currency",
	"pricing.units.currency_symbol",
	"pricing.units.volume",
	"facility.seed",
	"facility.customers",
	"facility.candidates",
	"facility.gaussians",
	"facility.spread",
	"facility.clusters",
	"facility.max_facilities",
	"facility.threshold",
	"facility.binary_threshold",
	"facility.kmeans.batch_size",
	"facility.kmeans.max_iter",
	"facility.kmeans.init_size",
	"facility.kmeans.tol",
	"metrics.pushgateway_url",
	"metrics.job",
}

// newViper builds a Viper instance reading YAML with OPSPLAN_ environment
// overrides; "." in keys maps to "_" in variable names.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}
	return v, nil
}

// Load reads the YAML file at path, merges OPSPLAN_* environment overrides,
// applies defaults and validates the result. An empty path loads from the
// environment and defaults only.
func Load(path string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
