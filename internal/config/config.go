// Package config defines the opsplan configuration: structures, defaults,
// validation and loading from YAML files and OPSPLAN_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bartolsthoorn/opsplan/pricing"
)

// Config is the complete opsplan configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Facility FacilityConfig `mapstructure:"facility"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// SolverConfig holds the options passed to every solve.
type SolverConfig struct {
	TimeLimit time.Duration `mapstructure:"time_limit"` // 0 = no limit
	MIPRelGap float64       `mapstructure:"mip_rel_gap"`
	Threads   int           `mapstructure:"threads"` // 0 = solver default
	Output    bool          `mapstructure:"output"`
	// RequireGlobal demands a proven global optimum for the pricing model.
	// Defaults to true.
	RequireGlobal *bool `mapstructure:"require_global"`
}

// ProductConfig is one product of the pricing model.
type ProductConfig struct {
	Name        string  `mapstructure:"name"`
	Consumption float64 `mapstructure:"consumption"`
	Price       float64 `mapstructure:"price"`
	Elasticity  float64 `mapstructure:"elasticity"`
}

// ComponentConfig is one capacity-limited component. Usage is keyed by
// product name; keys are matched case-insensitively because YAML map keys
// are folded to lower case on load.
type ComponentConfig struct {
	Name     string             `mapstructure:"name"`
	Capacity float64            `mapstructure:"capacity"`
	Usage    map[string]float64 `mapstructure:"usage"`
}

// SubstitutionConfig is one directed substitution edge.
type SubstitutionConfig struct {
	Product    string  `mapstructure:"product"`
	Substitute string  `mapstructure:"substitute"`
	Elasticity float64 `mapstructure:"elasticity"`
}

// UnitsConfig sets the display units of the pricing table.
type UnitsConfig struct {
	Currency       float64 `mapstructure:"currency"`
	CurrencySymbol string  `mapstructure:"currency_symbol"`
	Volume         float64 `mapstructure:"volume"`
}

// PricingConfig describes the pricing scenario.
type PricingConfig struct {
	Products         []ProductConfig      `mapstructure:"products"`
	Components       []ComponentConfig    `mapstructure:"components"`
	PriceIndexBudget float64              `mapstructure:"price_index_budget"`
	Substitutions    []SubstitutionConfig `mapstructure:"substitutions"`
	Units            UnitsConfig          `mapstructure:"units"`
}

// KMeansConfig tunes the clustering of customers.
type KMeansConfig struct {
	BatchSize int     `mapstructure:"batch_size"`
	MaxIter   int     `mapstructure:"max_iter"`
	InitSize  int     `mapstructure:"init_size"` // 0 = 3 × clusters
	Tol       float64 `mapstructure:"tol"`
}

// FacilityConfig describes the facility-location scenario.
type FacilityConfig struct {
	Seed       uint64  `mapstructure:"seed"`
	Customers  int     `mapstructure:"customers"`
	Candidates int     `mapstructure:"candidates"`
	Gaussians  int     `mapstructure:"gaussians"`
	Spread     float64 `mapstructure:"spread"`
	Clusters   int     `mapstructure:"clusters"`
	// MaxFacilities defaults to 8; an explicit 0 is kept.
	MaxFacilities   *int         `mapstructure:"max_facilities"`
	Threshold       float64      `mapstructure:"threshold"`
	BinaryThreshold float64      `mapstructure:"binary_threshold"`
	KMeans          KMeansConfig `mapstructure:"kmeans"`
}

// MetricsConfig configures pushing solve metrics at the end of a run.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"` // empty = disabled
	Job            string `mapstructure:"job"`
}

// Validate performs semantic validation of a defaulted Config. It returns
// the first error encountered.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Solver.TimeLimit < 0 {
		return fmt.Errorf("config: solver.time_limit must be ≥ 0, got %s", c.Solver.TimeLimit)
	}
	if c.Solver.MIPRelGap < 0 || c.Solver.MIPRelGap >= 1 {
		return fmt.Errorf("config: solver.mip_rel_gap must be in [0, 1), got %v", c.Solver.MIPRelGap)
	}
	if c.Solver.Threads < 0 {
		return fmt.Errorf("config: solver.threads must be ≥ 0, got %d", c.Solver.Threads)
	}

	if err := c.Pricing.validate(); err != nil {
		return err
	}
	if err := c.Facility.validate(); err != nil {
		return err
	}

	if c.Metrics.PushgatewayURL != "" {
		u, err := url.Parse(c.Metrics.PushgatewayURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: metrics.pushgateway_url %q is not an absolute URL", c.Metrics.PushgatewayURL)
		}
		if c.Metrics.Job == "" {
			return fmt.Errorf("config: metrics.job is required with a pushgateway")
		}
	}
	return nil
}

func (p *PricingConfig) validate() error {
	if len(p.Products) == 0 {
		return fmt.Errorf("config: pricing.products must not be empty")
	}
	seen := make(map[string]bool, len(p.Products))
	for _, prod := range p.Products {
		key := strings.ToLower(prod.Name)
		if seen[key] {
			return fmt.Errorf("config: pricing.products has %q twice (names are case-insensitive)", prod.Name)
		}
		seen[key] = true
	}
	if p.Units.Currency <= 0 || p.Units.Volume <= 0 {
		return fmt.Errorf("config: pricing.units must be positive")
	}
	return nil
}

func (f *FacilityConfig) validate() error {
	switch {
	case f.Customers <= 0:
		return fmt.Errorf("config: facility.customers must be ≥ 1, got %d", f.Customers)
	case f.Candidates <= 0:
		return fmt.Errorf("config: facility.candidates must be ≥ 1, got %d", f.Candidates)
	case f.Gaussians <= 0:
		return fmt.Errorf("config: facility.gaussians must be ≥ 1, got %d", f.Gaussians)
	case f.Spread <= 0:
		return fmt.Errorf("config: facility.spread must be > 0, got %v", f.Spread)
	case f.Clusters <= 0 || f.Clusters > f.Customers:
		return fmt.Errorf("config: facility.clusters must be in [1, %d], got %d", f.Customers, f.Clusters)
	case f.MaxFacilities == nil || *f.MaxFacilities < 0:
		return fmt.Errorf("config: facility.max_facilities must be ≥ 0")
	case f.Threshold <= 0:
		return fmt.Errorf("config: facility.threshold must be > 0, got %v", f.Threshold)
	case f.BinaryThreshold <= 0 || f.BinaryThreshold >= 1:
		return fmt.Errorf("config: facility.binary_threshold must be in (0, 1), got %v", f.BinaryThreshold)
	}
	return nil
}

// Tables converts the scenario into pricing tables. Products and components
// keep their configured order.
func (p *PricingConfig) Tables() pricing.Tables {
	t := pricing.Tables{
		Usage:       make(map[string]map[string]float64, len(p.Components)),
		Capacity:    make(map[string]float64, len(p.Components)),
		Consumption: make(map[string]float64, len(p.Products)),
		Price:       make(map[string]float64, len(p.Products)),
		Elasticity:  make(map[string]float64, len(p.Products)),
	}
	names := make(map[string]string, len(p.Products))
	for _, prod := range p.Products {
		t.Products = append(t.Products, prod.Name)
		t.Consumption[prod.Name] = prod.Consumption
		t.Price[prod.Name] = prod.Price
		t.Elasticity[prod.Name] = prod.Elasticity
		names[strings.ToLower(prod.Name)] = prod.Name
	}
	for _, c := range p.Components {
		t.Components = append(t.Components, c.Name)
		t.Capacity[c.Name] = c.Capacity
		row := make(map[string]float64, len(c.Usage))
		for k, v := range c.Usage {
			name, ok := names[strings.ToLower(k)]
			if !ok {
				name = k
			}
			row[name] = v
		}
		t.Usage[c.Name] = row
	}
	return t
}

// Params returns the pricing parameters of the scenario.
func (p *PricingConfig) Params() pricing.Params {
	params := pricing.Params{PriceIndexBudget: p.PriceIndexBudget}
	for _, s := range p.Substitutions {
		params.Substitutions = append(params.Substitutions, pricing.Substitution{
			Product:    s.Product,
			Substitute: s.Substitute,
			Elasticity: s.Elasticity,
		})
	}
	return params
}

// GlobalRequired reports whether the pricing solve must prove a global optimum.
func (s *SolverConfig) GlobalRequired() bool {
	return s.RequireGlobal == nil || *s.RequireGlobal
}
