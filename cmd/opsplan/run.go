package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bartolsthoorn/opsplan/facility"
	"github.com/bartolsthoorn/opsplan/internal/config"
	"github.com/bartolsthoorn/opsplan/internal/logging"
	"github.com/bartolsthoorn/opsplan/internal/metrics"
	"github.com/bartolsthoorn/opsplan/kmeans"
	"github.com/bartolsthoorn/opsplan/mathprog"
	"github.com/bartolsthoorn/opsplan/mathprog/highs"
	"github.com/bartolsthoorn/opsplan/pricing"
	"github.com/bartolsthoorn/opsplan/report"
)

// stage solves one model and returns its report tables.
type stage func(ctx context.Context, a *app) ([]report.Table, error)

// app carries what every stage needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	solver  mathprog.Solver
	metrics *metrics.Metrics
}

func runCommand(cmd *cobra.Command, configPath string, stages ...stage) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m := metrics.New()
	a := &app{
		cfg:     cfg,
		log:     log,
		solver:  m.InstrumentSolver(highs.New(highs.WithLogger(log))),
		metrics: m,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := a.run(ctx, cmd.OutOrStdout(), stages...)

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := m.Push(ctx, url, cfg.Metrics.Job); err != nil {
			log.Warn("failed to push metrics", zap.Error(err))
		}
	}
	return runErr
}

// run executes the stages concurrently and renders their tables to w in
// stage order once all have finished.
func (a *app) run(ctx context.Context, w io.Writer, stages ...stage) error {
	tables := make([][]report.Table, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range stages {
		g.Go(func() error {
			t, err := s(gctx, a)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []report.Table
	for _, t := range tables {
		all = append(all, t...)
	}
	return report.Render(w, all...)
}

// solveOptions are the backend options shared by both models. Time limits
// are passed through the planner options.
func (a *app) solveOptions() []mathprog.SolveOption {
	s := a.cfg.Solver
	opts := []mathprog.SolveOption{mathprog.WithOutput(s.Output)}
	if s.MIPRelGap > 0 {
		opts = append(opts, mathprog.WithMIPRelGap(s.MIPRelGap))
	}
	if s.Threads > 0 {
		opts = append(opts, mathprog.WithThreads(s.Threads))
	}
	return opts
}

func stagePricing(ctx context.Context, a *app) ([]report.Table, error) {
	pc := a.cfg.Pricing
	d, err := pricing.NewDataFromTables(pc.Tables())
	if err != nil {
		return nil, fmt.Errorf("pricing data: %w", err)
	}

	pl := pricing.NewPlanner(a.solver, a.log, pricing.Options{
		RequireGlobal: a.cfg.Solver.GlobalRequired(),
		TimeLimit:     a.cfg.Solver.TimeLimit,
		SolveOptions:  a.solveOptions(),
	})
	res, err := pl.Plan(ctx, d, pc.Params())
	if err != nil {
		return nil, err
	}

	units := report.Units{
		Currency:       pc.Units.Currency,
		CurrencySymbol: pc.Units.CurrencySymbol,
		Volume:         pc.Units.Volume,
	}
	return []report.Table{report.PriceTable(res, units)}, nil
}

func stageFacility(ctx context.Context, a *app) ([]report.Table, error) {
	fc := a.cfg.Facility
	rng := rand.New(rand.NewPCG(fc.Seed, fc.Seed))
	inst, err := facility.GenerateInstance(rng, facility.InstanceConfig{
		Customers:  fc.Customers,
		Facilities: fc.Candidates,
		Gaussians:  fc.Gaussians,
		Spread:     fc.Spread,
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("generated instance",
		zap.Int("customers", len(inst.Customers)),
		zap.Int("facilities", len(inst.Facilities)),
		zap.Uint64("seed", fc.Seed))

	oracle := kmeans.MiniBatch{
		BatchSize: fc.KMeans.BatchSize,
		MaxIter:   fc.KMeans.MaxIter,
		InitSize:  fc.KMeans.InitSize,
		Tol:       fc.KMeans.Tol,
	}
	pl := facility.NewPlanner(a.solver, oracle, a.log, facility.Options{
		BinaryThreshold: fc.BinaryThreshold,
		TimeLimit:       a.cfg.Solver.TimeLimit,
		SolveOptions:    a.solveOptions(),
	})
	res, err := pl.PlanCustomers(ctx, inst.Customers, inst.Facilities, facility.Params{
		Clusters:      fc.Clusters,
		Seed:          fc.Seed,
		Threshold:     fc.Threshold,
		MaxFacilities: *fc.MaxFacilities,
	})
	if err != nil {
		return nil, err
	}
	return []report.Table{report.FacilityTable(res), report.AssignmentTable(res)}, nil
}
