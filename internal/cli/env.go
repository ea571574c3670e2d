package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/shieldscan/internal/cache"
	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/config"
	"github.com/dshills/shieldscan/internal/filter"
	"github.com/dshills/shieldscan/internal/gitctx"
	"github.com/dshills/shieldscan/internal/log"
	"github.com/dshills/shieldscan/internal/output"
	"github.com/dshills/shieldscan/internal/scan"
)

// Shared scan flags
var (
	flagFormat     string
	flagOut        string
	flagExitZero   bool
	flagExclude    string
	flagBanlist    string
	flagMaxCommits int
	flagVerbose    bool
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&flagExitZero, "exit-zero", false, "Exit with 0 even when secrets are found")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagBanlist, "banlist-detector", "", "Ignore findings of these detectors (comma-separated)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print scan progress")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagExitZero {
		m["exit_zero"] = "true"
	}
	if flagVerbose {
		m["verbose"] = "true"
	}
	if flagMaxCommits > 0 {
		m["max_commits"] = strconv.Itoa(flagMaxCommits)
	}
	if flagDebug {
		m["log_level"] = "debug"
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// newClient builds the detection API client.
var newClient = func(cfg config.Config, logger *slog.Logger) (client.Scanner, error) {
	return client.New(client.Options{
		BaseURL:    cfg.APIURL,
		APIKey:     cfg.APIKey,
		UserAgent:  toolName + "/" + Version,
		MaxRetries: uint64(cfg.MaxRetries),
		RateLimit:  cfg.RateLimit,
		Logger:     logger,
	})
}

// scanEnv holds everything a scan command needs.
type scanEnv struct {
	ctx     context.Context
	cfg     config.Config
	log     *log.Logger
	cache   *cache.Cache
	scanner *scan.Scanner
	exclude filter.Paths
	info    output.Info
}

// setup loads config and builds the scanner. Failures are reported and
// recorded in exitCode; the returned env is nil in that case.
func setup(cmd *cobra.Command, scanType, target string) *scanEnv {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		_ = fail(cmd, ExitUsageError, err)
		return nil
	}
	if cfg.APIKey == "" {
		_ = fail(cmd, ExitAuthError, fmt.Errorf("no API key: set %s_API_KEY", config.EnvPrefix))
		return nil
	}

	info := output.NewInfo(toolName, Version, scanType, target)
	ctx := log.WithRunID(cmd.Context(), info.RunID)
	logger := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel).WithContext(ctx)

	api, err := newClient(cfg, logger.Slog())
	if err != nil {
		_ = fail(cmd, ExitAuthError, err)
		return nil
	}
	c := cache.New(true, cfg.CachePath, logger.Slog())

	exclude := filter.Paths(cfg.PathsIgnore)
	exclude = append(exclude, splitComma(flagExclude)...)
	cfg.BanlistedDetectors = append(cfg.BanlistedDetectors, splitComma(flagBanlist)...)

	return &scanEnv{
		ctx:   ctx,
		cfg:   cfg,
		log:   logger,
		cache: c,
		scanner: scan.NewScanner(scan.Config{
			Client:       api,
			Cache:        c,
			Version:      Version,
			CommandPath:  cmd.CommandPath(),
			ExtraHeaders: cfg.ExtraHeaders,
			Logger:       logger.Slog(),
		}),
		exclude: exclude,
		info:    info,
	}
}

// repo opens the repository of the working directory and fills in the
// report's repository fields.
func (e *scanEnv) repo() (*gitctx.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	r, err := gitctx.Open(e.ctx, wd)
	if err != nil {
		return nil, err
	}
	meta := r.Meta(e.ctx)
	e.info.Repo = meta.Root
	e.info.Branch = meta.Branch
	return r, nil
}

func (e *scanEnv) options(cmd *cobra.Command, mode string) scan.ScanOptions {
	opts := scan.ScanOptions{
		Mode:             mode,
		IgnoredMatches:   e.cfg.MatchesIgnore,
		IgnoredDetectors: e.cfg.IgnoredDetectors(),
	}
	if e.cfg.Verbose {
		scanned := 0
		w := cmd.ErrOrStderr()
		opts.OnChunkScanned = func(chunk []client.Payload) {
			scanned += len(chunk)
			fmt.Fprintf(w, "Scanned %d files\n", scanned)
		}
	}
	return opts
}

// scanCollection scans coll, turning setup failures into an outcome.
func (e *scanEnv) scanCollection(cmd *cobra.Command, coll *scan.Collection, mode string) *scan.Outcome {
	out, err := e.scanner.Scan(e.ctx, coll, e.options(cmd, mode))
	if err != nil {
		return scan.OutcomeFromError(err)
	}
	return out
}

// scanFiles scans files read from git or disk.
func (e *scanEnv) scanFiles(cmd *cobra.Command, files []gitctx.File, mode string) *scan.Outcome {
	units := make([]scan.Unit, 0, len(files))
	for _, f := range files {
		units = append(units, scan.NewFileFromBytes(f.Content, f.Path))
	}
	return e.scanCollection(cmd, scan.NewCollection(units), mode)
}

// finish writes the report of a plain scan and sets the exit code.
func (e *scanEnv) finish(cmd *cobra.Command, outcome *scan.Outcome) {
	report := &output.ScanReport{Info: e.info, Outcome: outcome}
	if err := output.WriteScanReport(report, e.cfg.Format, flagOut); err != nil {
		_ = fail(cmd, ExitRuntimeError, fmt.Errorf("writing output: %w", err))
		return
	}
	exitCode = scanExitCode(outcome, e.cfg.ExitZero)
}

func scanExitCode(o *scan.Outcome, exitZero bool) int {
	switch {
	case o.HasResults() && exitZero:
		return ExitSuccess
	case o.HasResults():
		return ExitFindings
	case o.AuthFailed():
		return ExitAuthError
	case o != nil && len(o.Errors) > 0:
		return ExitRuntimeError
	}
	return ExitSuccess
}
