// Package solve runs the full pipeline for one problem: simplex, sensitivity,
// the graphical check and the reference check. It is what the server and
// the CLI call.
package solve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/crosscheck"
	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/lp/sensitivity"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
	"github.com/copyleftdev/lplab/internal/metrics"
)

// Options configures a Service.
type Options struct {
	MaxIterations      int
	Rule               simplex.Rule
	StabilityThreshold float64
	// Timeout bounds a whole solve; zero means no limit beyond the caller's
	// context.
	Timeout time.Duration
	// CrossCheck enables the graphical and reference comparisons.
	CrossCheck bool
	// ReferenceTimeout bounds the gonum reference solve. A reference that
	// runs out of time leaves the check unavailable and the solve intact.
	ReferenceTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxIterations:      simplex.DefaultMaxIterations,
		Rule:               simplex.Dantzig,
		StabilityThreshold: sensitivity.DefaultStabilityThreshold,
		Timeout:            10 * time.Second,
		CrossCheck:         true,
		ReferenceTimeout:   crosscheck.DefaultReferenceTimeout,
	}
}

// Service runs solves. It keeps no per-solve state and is safe for
// concurrent use.
type Service struct {
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
	simplex   *simplex.Engine
	graphical *graphical.Engine
	analyzer  *sensitivity.Analyzer
	referee   *crosscheck.Referee
}

// NewService creates a Service. logger and m may be nil.
func NewService(opts Options, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		opts:    opts,
		logger:  logger.Named("solve"),
		metrics: m,
		simplex: simplex.NewEngine(
			simplex.WithMaxIterations(opts.MaxIterations),
			simplex.WithRule(opts.Rule),
			simplex.WithLogger(logger),
		),
		graphical: graphical.NewEngine(graphical.WithLogger(logger)),
		analyzer: sensitivity.NewAnalyzer(
			sensitivity.WithStabilityThreshold(opts.StabilityThreshold),
			sensitivity.WithLogger(logger),
		),
		referee: crosscheck.NewReferee(opts.ReferenceTimeout, 0),
	}
}

// Options returns the service options.
func (s *Service) Options() Options { return s.opts }

type outcome struct {
	report *Report
	err    error
}

// Solve runs the pipeline on p. It returns ctx.Err() when the caller's
// deadline or the service timeout expires first.
func (s *Service) Solve(ctx context.Context, p *lp.Problem) (*Report, error) {
	const op = "Service.Solve"
	if p == nil {
		return nil, lp.NilProblem("solve", op)
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		report, err := s.run(ctx, p)
		done <- outcome{report: report, err: err}
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Solve abandoned", zap.Error(ctx.Err()), zap.Duration("elapsed", time.Since(start)))
		s.metrics.ObservePipeline("canceled", time.Since(start), 0)
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		elapsed := time.Since(start)
		out.report.Duration = elapsed
		s.metrics.ObservePipeline(string(out.report.Simplex.Status), elapsed, out.report.Simplex.Iterations)
		s.logger.Info("Solved problem",
			zap.String("id", out.report.ID),
			zap.String("status", string(out.report.Simplex.Status)),
			zap.Float64("value", out.report.Simplex.OptimalValue),
			zap.Int("iterations", out.report.Simplex.Iterations),
			zap.Duration("elapsed", elapsed),
		)
		return out.report, nil
	}
}

func (s *Service) run(ctx context.Context, p *lp.Problem) (*Report, error) {
	id, err := Fingerprint(p)
	if err != nil {
		return nil, err
	}

	sol, err := s.simplex.Solve(ctx, p)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSolve("simplex", string(sol.Status))

	report := &Report{
		ID:          id,
		Problem:     p,
		Simplex:     sol,
		Sensitivity: s.analyzer.Analyze(p, sol),
		Graphical:   s.graphical.Solve(p),
	}
	s.metrics.ObserveSolve("graphical", string(report.Graphical.Status))

	if s.opts.CrossCheck {
		g := crosscheck.CompareGraphical(sol, report.Graphical)
		ref := crosscheck.CompareReference(sol, s.referee.Solve(ctx, p))
		report.GraphicalCheck, report.ReferenceCheck = &g, &ref
		s.noteDisagreement(id, "graphical", g)
		s.noteDisagreement(id, "reference", ref)
	}
	return report, nil
}

func (s *Service) noteDisagreement(id, against string, cmp crosscheck.Comparison) {
	if !cmp.Checked || cmp.Agree {
		return
	}
	s.metrics.ObserveDisagreement(against)
	s.logger.Warn(fmt.Sprintf("Cross-check against %s failed", against),
		zap.String("id", id),
		zap.String("detail", cmp.Message),
	)
}
