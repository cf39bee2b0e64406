// Package main is the entry point for the fsinfo application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/fsinfo/internal/config"
	"github.com/joe/fsinfo/internal/export"
	"github.com/joe/fsinfo/internal/logger"
	"github.com/joe/fsinfo/internal/telemetry"
	"github.com/joe/fsinfo/internal/tui"
	fserrors "github.com/joe/fsinfo/pkg/errors"
	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/fsinfo"
	"github.com/joe/fsinfo/pkg/scanner"
)

const version = "1.0.0"

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

var errNotFound = errors.New("no such file or directory")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, term.IsTerminal(int(os.Stdout.Fd())))

	stop()
	os.Exit(code)
}

type app struct {
	cfg         *config.Config
	stdout      io.Writer
	stderr      io.Writer
	log         *logger.ConsoleLogger
	interactive bool
	fsConfig    fsinfo.Config
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, interactive bool) int {
	cfg, parser, err := config.Parse(args)

	switch {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelp(stdout)

		return exitOK
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, config.Config{}.Version())

		return exitOK
	case err != nil:
		if parser != nil {
			parser.WriteUsage(stderr)
		}

		fmt.Fprintf(stderr, "Error: %v\n", err)

		return exitUsage
	}

	a := &app{
		cfg:         cfg,
		stdout:      stdout,
		stderr:      stderr,
		log:         logger.NewConsoleLogger(stderr, cfg.LogLevel),
		interactive: interactive,
		fsConfig:    cfg.Filesystem(),
	}
	a.fsConfig.Logger = a.log

	if cfg.Trace {
		tp, shutdown, err := telemetry.Init(stderr, version)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)

			return exitFailure
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				a.log.Warnf("%v", err)
			}
		}()

		a.fsConfig.TracerProvider = tp
	}

	var target string
	if cfg.Scan != nil {
		target = cfg.Scan.Path
	} else {
		target = cfg.Describe.Path
	}

	err = a.execute(ctx, target)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNotFound):
		return exitNotFound
	default:
		a.report(err, target)

		return exitFailure
	}
}

func (a *app) execute(ctx context.Context, target string) error {
	fs, p, closeFS, err := filesystem.Open(ctx, target, a.cfg.PoolConfig())
	if err != nil {
		return err //nolint:wrapcheck // already carries the target
	}
	defer closeFS()

	a.log.Debugf("opened %s (mode %s, ttl %s, max in flight %d)", target, a.cfg.Mode, a.cfg.TTL, a.cfg.MaxInFlight)

	if a.cfg.Describe != nil {
		return a.describe(ctx, fs, p)
	}

	if a.cfg.Scan.Stream {
		return a.stream(ctx, fs, p)
	}

	return a.scan(ctx, fs, p)
}

func (a *app) report(err error, target string) {
	enriched := fserrors.NewEnricher().Enrich(err, target)

	fmt.Fprintf(a.stderr, "Error: %v\n", enriched)

	if suggestions := fserrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprint(a.stderr, suggestions)
	}
}

func (a *app) scan(ctx context.Context, fs filesystem.FileSystem, root string) error {
	cmd := a.cfg.Scan
	started := time.Now()
	showProgress := a.interactive && !cmd.Plain

	var (
		result *scanner.Result
		err    error
	)

	if showProgress {
		result, err = a.scanWithProgress(ctx, fs, root, !cmd.Shallow)
	} else {
		result, err = fsinfo.New(fs, a.fsConfig).Scan(ctx, root, !cmd.Shallow)
	}

	if err != nil {
		return fmt.Errorf("scan of %s stopped: %w", root, err)
	}

	for _, problem := range result.Problems {
		a.log.Infof("%v", fserrors.NewEnricher().Enrich(problem, problem.Path))
	}

	a.log.LogScanSummary(result.Root, result.Len(), len(result.Problems), time.Since(started))

	if cmd.Include != "" {
		result = fsinfo.FilterResult(result, fsinfo.NewGlobFilter(cmd.Include))
	}

	if showProgress {
		err = tui.RenderListing(ctx, a.stdout, result)
	} else {
		err = tui.RenderPlain(ctx, a.stdout, a.stderr, result)
	}

	if err != nil {
		return err //nolint:wrapcheck // renderers wrap their own failures
	}

	if cmd.Export != "" {
		return a.export(ctx, result, started)
	}

	return nil
}

func (a *app) scanWithProgress(
	ctx context.Context,
	fs filesystem.FileSystem,
	root string,
	recursive bool,
) (*scanner.Result, error) {
	bridge := tui.NewEventBridge()
	defer bridge.Close()

	cfg := a.fsConfig
	cfg.Emitter = bridge

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := fsinfo.New(fs, cfg).ScanAsync(scanCtx, root, recursive)

	outcome, err := tui.RunProgress(ctx, root, bridge, outcomes, cancel, a.stderr)
	if err != nil {
		return nil, err //nolint:wrapcheck // already describes the display failure
	}

	if dropped := bridge.Dropped(); dropped > 0 {
		a.log.Tracef("progress display skipped %d events", dropped)
	}

	return outcome.Result, outcome.Err
}

func (a *app) export(ctx context.Context, result *scanner.Result, started time.Time) error {
	store, err := export.Open(a.cfg.Scan.Export)
	if err != nil {
		return err //nolint:wrapcheck // export wraps its own failures
	}
	defer store.Close()

	id, err := store.Write(ctx, result, started)
	if err != nil {
		return err //nolint:wrapcheck // export wraps its own failures
	}

	a.log.Infof("exported %d entries to %s as scan %s", result.Len(), a.cfg.Scan.Export, id)

	return nil
}

func (a *app) stream(ctx context.Context, fs filesystem.FileSystem, root string) error {
	walker := fsinfo.New(fs, a.fsConfig).Walk(ctx, root)
	filter := fsinfo.NewGlobFilter(a.cfg.Scan.Include)

	absRoot := ""
	count := 0

	for {
		entry, ok := walker.Next()
		if !ok {
			break
		}

		if absRoot == "" {
			absRoot = entry.Path
		} else if !filter.ShouldInclude(fsinfo.RelativePath(absRoot, entry.Path)) {
			continue
		}

		if err := tui.RenderWalkEntry(a.stdout, entry); err != nil {
			return err //nolint:wrapcheck // renderer wraps its own failures
		}

		count++
	}

	for _, problem := range walker.Problems() {
		fmt.Fprintf(a.stderr, "problem: %v\n", problem)
	}

	if err := walker.Err(); err != nil {
		return fmt.Errorf("walk of %s stopped: %w", root, err)
	}

	a.log.Infof("streamed %d entries", count)

	return nil
}

func (a *app) describe(ctx context.Context, fs filesystem.FileSystem, p string) error {
	info, err := fsinfo.New(fs, a.fsConfig).Describe(ctx, p)
	if err != nil {
		return err //nolint:wrapcheck // only the context's error
	}

	report, err := tui.BuildReport(ctx, info)
	if err != nil {
		return err //nolint:wrapcheck // only the context's error
	}

	if a.cfg.Describe.Format == config.FormatYAML {
		err = tui.RenderReportYAML(a.stdout, report)
	} else {
		err = tui.RenderReportText(a.stdout, report)
	}

	if err != nil {
		return err //nolint:wrapcheck // renderers wrap their own failures
	}

	if report.Type == "none" {
		return fmt.Errorf("%s: %w", p, errNotFound)
	}

	return nil
}
