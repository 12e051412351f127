package config

import "time"

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultSolverTimeLimit = 10 * time.Minute

	DefaultCurrencyUnit   = 1000
	DefaultCurrencySymbol = "$"
	DefaultVolumeUnit     = 1e6

	DefaultSeed            = 10101
	DefaultCustomers       = 50000
	DefaultCandidates      = 50
	DefaultGaussians       = 10
	DefaultSpread          = 0.1
	DefaultClusters        = 1000
	DefaultMaxFacilities   = 8
	DefaultThreshold       = 0.99
	DefaultBinaryThreshold = 0.5

	DefaultMetricsJob = "opsplan"
)

// DefaultPricing returns the dairy scenario: four products, two components
// and one pair of cheeses that substitute each other asymmetrically.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		Products: []ProductConfig{
			{Name: "milk", Consumption: 4.82, Price: 0.297, Elasticity: 0.4},
			{Name: "butter", Consumption: 0.32, Price: 0.72, Elasticity: 2.7},
			{Name: "cheese1", Consumption: 0.21, Price: 1.05, Elasticity: 1.1},
			{Name: "cheese2", Consumption: 0.07, Price: 0.815, Elasticity: 0.4},
		},
		Components: []ComponentConfig{
			{Name: "fat", Capacity: 600, Usage: map[string]float64{
				"milk": 0.04, "butter": 0.8, "cheese1": 0.35, "cheese2": 0.25,
			}},
			{Name: "dryMatter", Capacity: 750, Usage: map[string]float64{
				"milk": 0.09, "butter": 0.02, "cheese1": 0.3, "cheese2": 0.4,
			}},
		},
		PriceIndexBudget: 1.939,
		Substitutions: []SubstitutionConfig{
			{Product: "cheese1", Substitute: "cheese2", Elasticity: 0.1},
			{Product: "cheese2", Substitute: "cheese1", Elasticity: 0.4},
		},
	}
}

// ApplyDefaults fills every zero-value field in cfg with its default. Fields
// that have already been set are left unchanged. When no products are
// configured the whole DefaultPricing scenario is used, keeping an explicit
// budget or substitution list.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Solver
	if cfg.Solver.TimeLimit == 0 {
		cfg.Solver.TimeLimit = DefaultSolverTimeLimit
	}
	if cfg.Solver.RequireGlobal == nil {
		t := true
		cfg.Solver.RequireGlobal = &t
	}

	// Pricing
	if len(cfg.Pricing.Products) == 0 {
		def := DefaultPricing()
		cfg.Pricing.Products = def.Products
		cfg.Pricing.Components = def.Components
		if cfg.Pricing.PriceIndexBudget == 0 {
			cfg.Pricing.PriceIndexBudget = def.PriceIndexBudget
		}
		if cfg.Pricing.Substitutions == nil {
			cfg.Pricing.Substitutions = def.Substitutions
		}
	}
	if cfg.Pricing.Units.Currency == 0 {
		cfg.Pricing.Units.Currency = DefaultCurrencyUnit
	}
	if cfg.Pricing.Units.CurrencySymbol == "" {
		cfg.Pricing.Units.CurrencySymbol = DefaultCurrencySymbol
	}
	if cfg.Pricing.Units.Volume == 0 {
		cfg.Pricing.Units.Volume = DefaultVolumeUnit
	}

	// Facility
	f := &cfg.Facility
	if f.Seed == 0 {
		f.Seed = DefaultSeed
	}
	if f.Customers == 0 {
		f.Customers = DefaultCustomers
	}
	if f.Candidates == 0 {
		f.Candidates = DefaultCandidates
	}
	if f.Gaussians == 0 {
		f.Gaussians = DefaultGaussians
	}
	if f.Spread == 0 {
		f.Spread = DefaultSpread
	}
	if f.Clusters == 0 {
		f.Clusters = DefaultClusters
	}
	if f.MaxFacilities == nil {
		n := DefaultMaxFacilities
		f.MaxFacilities = &n
	}
	if f.Threshold == 0 {
		f.Threshold = DefaultThreshold
	}
	if f.BinaryThreshold == 0 {
		f.BinaryThreshold = DefaultBinaryThreshold
	}

	// Metrics
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = DefaultMetricsJob
	}
}
