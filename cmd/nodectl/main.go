package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"nodectl/internal/api"
	"nodectl/internal/config"
	"nodectl/internal/geo"
	"nodectl/internal/logging"
	"nodectl/internal/model"
	"nodectl/internal/output"
	"nodectl/internal/pipeline"
	"nodectl/internal/server"
	"nodectl/internal/source"
	"nodectl/internal/stats"
)

var version = "dev"

var log = logging.New(config.DefaultLogLevel)

const usage = `nodectl - normalize, filter and rename proxy node lists

Usage:
  nodectl rename --input <path|-|url> [-o <file>] [--pattern <pattern>]
                 [--latency-threshold <ms>] [--include-inactive]
                 [--format json|csv] [--input-format json|yaml|csv]
                 [--geoip <mmdb>] [--workers <n>]
                 [--watch] [--interval <dur>] [--config <path>]
  nodectl list   --input <path|-|url> [-o <file>] [--pattern <pattern>]
                 [--latency-threshold <ms>] [--include-inactive]
                 [--geoip <mmdb>] [--config <path>]
  nodectl stats  --input <path|-|url> [--latency-threshold <ms>] [--config <path>]
  nodectl serve  [--listen <addr>] [--geoip <mmdb>] [--config <path>]
  nodectl init   --config <path> [--force]
  nodectl version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	config.LoadEnv(log)

	switch cmd := os.Args[1]; cmd {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "rename":
		handleRename(os.Args[2:])
	case "list":
		handleList(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "serve":
		handleServe(os.Args[2:])
	case "init":
		handleInit(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func handleRename(args []string) {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("NODECTL_CONFIG"), "path to YAML config")
	tf := registerTransformFlags(fs)
	watch := fs.Bool("watch", false, "re-run the transform on an interval")
	interval := fs.Duration("interval", 5*time.Minute, "watch interval")
	_ = fs.Parse(args)

	cfg, err := resolveConfig(*configPath, fs, tf)
	if err != nil {
		fatal(err)
	}
	if *watch && cfg.Output == "" {
		fatal(errors.New("--watch requires -o"))
	}

	flags, err := geo.Open(cfg.GeoIPDB)
	if err != nil {
		fatal(err)
	}
	defer flags.Close()

	ctx, cancel := signalContext()
	defer cancel()

	format := tf.sourceFormat(cfg.Input)
	run := func() error {
		records, err := runTransform(ctx, cfg, format, flags)
		if err != nil {
			return err
		}
		return writeRecords(cfg, records)
	}

	if err := run(); err != nil {
		fatal(err)
	}
	if !*watch {
		return
	}

	log.WithField("interval", interval.String()).WithField("output", cfg.Output).Info("watching input")
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(); err != nil {
				log.WithError(err).Warn("transform failed")
			}
		}
	}
}

func handleList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("NODECTL_CONFIG"), "path to YAML config")
	tf := registerTransformFlags(fs)
	_ = fs.Parse(args)

	cfg, err := resolveConfig(*configPath, fs, tf)
	if err != nil {
		fatal(err)
	}

	flags, err := geo.Open(cfg.GeoIPDB)
	if err != nil {
		fatal(err)
	}
	defer flags.Close()

	ctx, cancel := signalContext()
	defer cancel()

	records, err := runTransform(ctx, cfg, tf.sourceFormat(cfg.Input), flags)
	if err != nil {
		fatal(err)
	}

	if cfg.Output == "" {
		output.WriteTable(os.Stdout, records)
		return
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		fatal(err)
	}
	output.WriteTable(f, records)
	fatal(f.Close())
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("NODECTL_CONFIG"), "path to YAML config")
	tf := registerTransformFlags(fs)
	_ = fs.Parse(args)

	cfg, err := resolveConfig(*configPath, fs, tf)
	if err != nil {
		fatal(err)
	}
	// Stats always summarizes the whole input, actives and inactives alike.
	cfg.IncludeInactive = true

	ctx, cancel := signalContext()
	defer cancel()

	records, err := runTransform(ctx, cfg, tf.sourceFormat(cfg.Input), nil)
	if err != nil {
		fatal(err)
	}

	summary := stats.Summarize(records)
	if summary.Count == 0 {
		fmt.Fprintln(os.Stdout, "no nodes")
		return
	}
	fmt.Fprintf(os.Stdout, "nodes=%d active=%d with_latency=%d\n",
		summary.Count, summary.Active, summary.WithLatency)
	if summary.WithLatency > 0 {
		fmt.Fprintf(os.Stdout, "latency avg=%.2fms p50=%.2fms p95=%.2fms min=%.2fms max=%.2fms\n",
			summary.AvgLatencyMs, summary.P50LatencyMs, summary.P95LatencyMs,
			summary.MinLatencyMs, summary.MaxLatencyMs)
	}
}

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("NODECTL_CONFIG"), "path to YAML config")
	listen := fs.String("listen", "", "listen address")
	geoipPath := fs.String("geoip", "", "GeoIP database for flag enrichment")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if cfg.Serve == nil {
		cfg.Serve = &config.ServeConfig{}
	}
	config.ApplyDefaults(&cfg)
	config.ApplyEnv(&cfg)
	if *listen != "" {
		cfg.Serve.Listen = *listen
	}
	if *geoipPath != "" {
		cfg.GeoIPDB = *geoipPath
	}
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}
	logging.SetLevel(log, cfg.LogLevel)

	flags, err := geo.Open(cfg.GeoIPDB)
	if err != nil {
		fatal(err)
	}
	defer flags.Close()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(cfg, log, flags, version)
	if err := srv.Run(ctx); err != nil {
		fatal(err)
	}
}

func handleInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	force := fs.Bool("force", false, "overwrite an existing config")
	_ = fs.Parse(args)

	if *configPath == "" {
		fatal(errors.New("--config is required"))
	}
	if !*force {
		if _, err := os.Stat(*configPath); err == nil {
			fatal(fmt.Errorf("%s already exists (use --force to overwrite)", *configPath))
		}
	}

	cfg := config.Config{Serve: &config.ServeConfig{}}
	if err := config.Save(*configPath, cfg); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", *configPath)
}

// transformFlags are the flags shared by rename, list and stats.
type transformFlags struct {
	input           *string
	out             *string
	pattern         *string
	threshold       *string
	includeInactive *bool
	format          *string
	inputFormat     *string
	geoip           *string
	workers         *int
}

func registerTransformFlags(fs *flag.FlagSet) *transformFlags {
	tf := &transformFlags{}
	tf.input = fs.String("input", "", "input path, - for stdin, or http(s) URL")
	tf.out = fs.String("o", "", "output file (default stdout)")
	tf.pattern = fs.String("pattern", "", "rename pattern")
	tf.threshold = fs.String("latency-threshold", "", "max healthy latency in ms")
	tf.includeInactive = fs.Bool("include-inactive", false, "keep inactive nodes in the output")
	tf.format = fs.String("format", "", "output format: json or csv")
	tf.inputFormat = fs.String("input-format", "", "input format override: json, yaml or csv")
	tf.geoip = fs.String("geoip", "", "GeoIP database for flag enrichment")
	tf.workers = fs.Int("workers", 0, "parallel transform workers")
	return tf
}

// resolveConfig merges config sources, weakest first: built-in defaults,
// config file, environment, then flags the user actually set.
func resolveConfig(configPath string, fs *flag.FlagSet, tf *transformFlags) (config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyDefaults(&cfg)
	config.ApplyEnv(&cfg)

	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })

	if seen["input"] {
		cfg.Input = *tf.input
	}
	if seen["o"] {
		cfg.Output = *tf.out
	}
	if seen["pattern"] {
		cfg.Pattern = *tf.pattern
	}
	if seen["format"] {
		cfg.Format = *tf.format
	}
	if seen["include-inactive"] {
		cfg.IncludeInactive = *tf.includeInactive
	}
	if seen["geoip"] {
		cfg.GeoIPDB = *tf.geoip
	}
	if seen["workers"] {
		cfg.Workers = *tf.workers
	}
	if seen["latency-threshold"] {
		ms, err := strconv.ParseFloat(*tf.threshold, 64)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid --latency-threshold %q", *tf.threshold)
		}
		cfg.LatencyThresholdMs = &ms
	}
	if *tf.inputFormat != "" {
		switch source.Format(*tf.inputFormat) {
		case source.FormatJSON, source.FormatYAML, source.FormatCSV:
		default:
			return config.Config{}, fmt.Errorf("invalid --input-format %q", *tf.inputFormat)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	logging.SetLevel(log, cfg.LogLevel)
	return cfg, nil
}

func (tf *transformFlags) sourceFormat(input string) source.Format {
	if *tf.inputFormat != "" {
		return source.Format(*tf.inputFormat)
	}
	return source.DetectFormat(input)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	return config.Load(path)
}

func runTransform(ctx context.Context, cfg config.Config, format source.Format, flags pipeline.FlagResolver) ([]model.Record, error) {
	raws, err := loadNodes(ctx, cfg.Input, format)
	if err != nil {
		return nil, err
	}
	return pipeline.Transform(ctx, raws, pipeline.Options{
		Pattern:            cfg.Pattern,
		LatencyThresholdMs: cfg.LatencyThresholdMs,
		IncludeInactive:    cfg.IncludeInactive,
		Workers:            cfg.Workers,
		Flags:              flags,
	})
}

func loadNodes(ctx context.Context, input string, format source.Format) ([]map[string]any, error) {
	if input == "" {
		return nil, errors.New("--input is required")
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return api.FetchNodes(ctx, input)
	}
	return source.Load(input, format)
}

func writeRecords(cfg config.Config, records []model.Record) error {
	if cfg.Output == "" {
		return writeTo(os.Stdout, cfg.Format, records)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := writeTo(f, cfg.Format, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTo(w io.Writer, format string, records []model.Record) error {
	if format == "csv" {
		return output.WriteCSV(w, records)
	}
	return output.WriteJSON(w, records)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()
	return ctx, cancel
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
