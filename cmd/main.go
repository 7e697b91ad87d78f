package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"celltowers/internal/aggregate"
	"celltowers/internal/config"
	"celltowers/internal/database"
	"celltowers/internal/loader"
	"celltowers/internal/logging"
	"celltowers/internal/observability"
	"celltowers/internal/pipeline"
	"celltowers/internal/report"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logging.NewFromEnv().Error(ctx, "run failed", logging.Err(err))
		os.Exit(1)
	}
}

// run parses args, executes the pipeline and renders every requested output.
// Positional arguments operator=<name> and circle=<name> print that
// selection's technology mix.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("celltowers", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envFile := fs.String("env", ".env", "path of an optional KEY=VALUE file")
	towers := fs.String("towers", "", "tower records CSV (overrides TOWERS_CSV)")
	operators := fs.String("operators", "", "MCC/MNC operator mapping CSV (overrides OPERATORS_CSV)")
	outDir := fs.String("out", "", "output directory (overrides OUTPUT_DIR)")
	source := fs.String("source", "", "input source: file or oracle (overrides SOURCE)")
	formats := fs.String("formats", "", "comma separated outputs: console,csv,xlsx,png,shp,geojson,sqlite")
	interactive := fs.Bool("interactive", false, "browse the technology mix with arrow keys")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.PrintDefaults()
			return nil
		}
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg, err := config.Load(*envFile, func(c *config.Config) {
		override(&c.TowersPath, *towers)
		override(&c.OperatorsPath, *operators)
		override(&c.OutputDir, *outDir)
		override(&c.Source, strings.ToLower(*source))
		if *formats != "" {
			c.Formats = config.ParseFormats(*formats)
		}
	})
	if err != nil {
		return err
	}

	queries, err := parseQueries(fs.Args())
	if err != nil {
		return err
	}

	ctx, log := logging.WithRunLogger(ctx, logging.New(cfg.Log))
	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	metrics, err := observability.NewPipelineCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	datasetStart := time.Now()
	res, err := pipeline.Run(ctx, src, pipeline.Options{Metrics: metrics})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Datasets loaded in %v (%d towers, %d kept)\n",
		time.Since(datasetStart).Truncate(time.Millisecond), len(res.Towers), len(res.Clean.Corrected))

	if err := writeOutputs(ctx, cfg, res, metrics, stdout); err != nil {
		return err
	}

	for _, q := range queries {
		renderQuery(stdout, res.TechMix, q)
	}
	if *interactive {
		interactiveSelect(res.TechMix)
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// openSource returns the configured input source and its release function.
func openSource(ctx context.Context, cfg config.Config) (pipeline.Source, func(), error) {
	switch cfg.Source {
	case config.SourceOracle:
		db, err := database.NewDatabase(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to oracle: %w", err)
		}
		return db, func() { db.Close() }, nil
	default:
		return loader.FileSource{TowersPath: cfg.TowersPath, OperatorsPath: cfg.OperatorsPath}, func() {}, nil
	}
}

// writeOutputs renders every enabled format, timing each under a
// "report_<format>" stage.
func writeOutputs(ctx context.Context, cfg config.Config, res *pipeline.Result, metrics *observability.PipelineCollector, stdout io.Writer) error {
	log := logging.FromContext(ctx)
	dir := cfg.OutputDir

	sinks := []struct {
		format string
		write  func() ([]string, error)
	}{
		{config.FormatConsole, func() ([]string, error) {
			renderReport(stdout, res)
			return nil, nil
		}},
		{config.FormatCSV, func() ([]string, error) {
			p, err := report.WriteCSVFile(dir, res.Clean.Corrected)
			return []string{p}, err
		}},
		{config.FormatXLSX, func() ([]string, error) {
			p, err := report.WriteWorkbook(dir, res)
			return []string{p}, err
		}},
		{config.FormatPNG, func() ([]string, error) {
			return report.WriteCharts(dir, res.ByOperator, res.ByCircle)
		}},
		{config.FormatSHP, func() ([]string, error) {
			return report.WriteShapefiles(dir, res.Clean.Circles)
		}},
		{config.FormatGeoJSON, func() ([]string, error) {
			if _, err := report.WriteGeoJSON(dir, res.Clean.Circles); err != nil {
				return nil, err
			}
			return []string{filepath.Join(dir, report.MapStateFile)}, nil
		}},
		{config.FormatSQLite, func() ([]string, error) {
			p, err := report.WriteSQLite(ctx, dir, res)
			return []string{p}, err
		}},
	}

	for _, s := range sinks {
		if !cfg.Wants(s.format) {
			continue
		}
		start := time.Now()
		paths, err := s.write()
		metrics.ObserveStage("report_"+s.format, time.Since(start))
		if err != nil {
			return fmt.Errorf("write %s output: %w", s.format, err)
		}
		if len(paths) > 0 {
			log.Info(ctx, "output written",
				logging.String("format", s.format),
				logging.Int("files", len(paths)),
				logging.String("first", paths[0]),
			)
		}
	}
	return nil
}

// query is a positional operator=<name> or circle=<name> selection.
type query struct {
	kind  string
	value string
}

func parseQueries(args []string) ([]query, error) {
	var out []query
	for _, arg := range args {
		kind, value, ok := strings.Cut(arg, "=")
		if !ok {
			kind, value, ok = strings.Cut(arg, ":")
		}
		kind = strings.ToLower(strings.TrimSpace(kind))
		value = strings.TrimSpace(value)
		if !ok || value == "" || (kind != "operator" && kind != "circle") {
			return nil, fmt.Errorf("unrecognised argument %q (want operator=<name> or circle=<name>)", arg)
		}
		out = append(out, query{kind: kind, value: value})
	}
	return out, nil
}

// renderQuery prints the technology mix of one operator or circle. Circle
// queries accept the canonical name or the display label.
func renderQuery(w io.Writer, mix []aggregate.MixRow, q query) {
	var rows []aggregate.MixRow
	name := q.value
	switch q.kind {
	case "operator":
		name = matchName(aggregate.Operators(mix), q.value)
		rows = aggregate.MixForOperator(mix, name)
	case "circle":
		name = matchName(aggregate.Circles(mix), circleName(q.value))
		rows = aggregate.MixForCircle(mix, name)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "No towers found for %s: %s\n", q.kind, q.value)
		return
	}
	renderMix(w, q.kind, name, rows)
}

// matchName resolves v case-insensitively against names.
func matchName(names []string, v string) string {
	for _, n := range names {
		if strings.EqualFold(n, v) {
			return n
		}
	}
	return v
}
