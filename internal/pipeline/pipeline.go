// Package pipeline runs load, clean and aggregate as one instrumented batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"celltowers/internal/aggregate"
	"celltowers/internal/cleaner"
	"celltowers/internal/logging"
	"celltowers/internal/observability"
	"celltowers/internal/types"
)

// Source supplies the two input tables. loader.FileSource and
// *database.Database both satisfy it.
type Source interface {
	Towers(ctx context.Context) ([]types.TowerRecord, error)
	Operators(ctx context.Context) ([]types.OperatorMapping, error)
}

// Options tunes a run.
type Options struct {
	// Metrics receives row counts and stage timings. May be nil.
	Metrics *observability.PipelineCollector
}

// Result holds every derived table of a run.
type Result struct {
	Towers    []types.TowerRecord
	Operators []types.OperatorMapping
	Clean     cleaner.Result

	ByOperator []aggregate.Count
	ByCircle   []aggregate.Count
	ByRadio    []aggregate.Count
	TechMix    []aggregate.MixRow
	Describe   []aggregate.Summary
	// Spread holds lat/lon quantiles per circle over the untrimmed rows.
	Spread []aggregate.CircleSpread

	Elapsed time.Duration
}

// Run loads both tables from src, cleans them and computes the aggregates.
func Run(ctx context.Context, src Source, opts Options) (*Result, error) {
	start := time.Now()
	log := logging.FromContext(ctx)
	ctx, span := observability.StartSpan(ctx, "pipeline.run")
	defer span.End()

	res := &Result{}
	if err := stage(ctx, opts.Metrics, "load", func(ctx context.Context) error {
		var err error
		if res.Towers, err = src.Towers(ctx); err != nil {
			return fmt.Errorf("load towers: %w", err)
		}
		if res.Operators, err = src.Operators(ctx); err != nil {
			return fmt.Errorf("load operators: %w", err)
		}
		return nil
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	log.Info(ctx, "inputs loaded",
		logging.Int("towers", len(res.Towers)),
		logging.Int("mappings", len(res.Operators)),
	)

	if err := stage(ctx, opts.Metrics, "clean", func(context.Context) error {
		res.Clean = cleaner.Clean(res.Towers, res.Operators)
		return nil
	}); err != nil {
		return nil, err
	}
	recordClean(opts.Metrics, res.Clean)
	s := res.Clean.Stats
	log.Info(ctx, "towers cleaned",
		logging.Int("input", s.Input),
		logging.Int("joined", s.Joined),
		logging.Int("inferred", s.Inferred),
		logging.Int("unmatched", s.Unmatched),
		logging.Int("defunct", s.Defunct),
		logging.Int("out_of_circle", s.OutOfCircle),
		logging.Int("trimmed", s.Trimmed),
		logging.Int("output", s.Output),
		logging.Float("kept_pct", keptPercent(s)),
	)
	for _, c := range res.Clean.Circles {
		if len(c.Records) == 0 {
			log.Warn(ctx, "circle has no towers", logging.String("circle", c.Circle))
		}
	}

	if err := stage(ctx, opts.Metrics, "aggregate", func(context.Context) error {
		corrected := res.Clean.Corrected
		res.ByOperator = aggregate.ByOperator(corrected)
		res.ByCircle = aggregate.ByCircle(corrected)
		res.ByRadio = aggregate.ByRadio(corrected)
		res.TechMix = aggregate.TechMix(corrected)
		res.Describe = aggregate.Describe(res.Towers)
		res.Spread = aggregate.CircleQuantiles(res.Clean.Normalized, aggregate.DescribePercentiles)
		return nil
	}); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("towers.input", s.Input),
		attribute.Int("towers.output", s.Output),
	)
	log.Info(ctx, "pipeline complete",
		logging.Int("operators", len(res.ByOperator)),
		logging.Int("circles", len(res.ByCircle)),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// stage runs fn inside a child span, timing it into m. A cancelled context
// stops the run before fn starts.
func stage(ctx context.Context, m *observability.PipelineCollector, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	ctx, span := observability.StartSpan(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	m.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// keptPercent is the share of input rows that reached the corrected table.
func keptPercent(s cleaner.Stats) float64 {
	if s.Input == 0 {
		return 0
	}
	return 100 * float64(s.Output) / float64(s.Input)
}

func recordClean(m *observability.PipelineCollector, r cleaner.Result) {
	s := r.Stats
	m.SetRows("input", s.Input)
	m.SetRows("joined", s.Joined)
	m.SetRows("output", s.Output)
	m.AddDropped(observability.DropInferred, s.Inferred)
	m.AddDropped(observability.DropUnmatched, s.Unmatched)
	m.AddDropped(observability.DropDefunct, s.Defunct)
	m.AddDropped(observability.DropOutOfCircle, s.OutOfCircle)
	m.AddDropped(observability.DropTrimmed, s.Trimmed)
	for _, c := range r.Circles {
		m.SetCircleRows(c.Circle, len(c.Records))
	}
}
