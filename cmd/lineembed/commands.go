package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/poiesic/lineembed"
	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/jobs"
	"github.com/poiesic/lineembed/pipeline"
	"github.com/poiesic/lineembed/storage/badger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func embedCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one input PATTERN is required")
	}
	cfg := loadConfig(c)

	inputs, err := expandPatterns(c.Args().Slice(), cfg.Run.OutputSuffix)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files match %s", strings.Join(c.Args().Slice(), " "))
	}

	display, err := newProgressDisplay(c.String("progress"), os.Stderr)
	if err != nil {
		return err
	}

	engine, err := lineembed.NewEngine(cfg, lineembed.WithObserver(display.observe))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := engine.Run(ctx, engine.Jobs(inputs, cfg.Run.OutputSuffix))
	return summarize(c.App.Writer, results)
}

func retryCommand(c *cli.Context) error {
	cfg := loadConfig(c)
	if cfg.Run.DB == "" {
		return fmt.Errorf("database path is required")
	}

	display, err := newProgressDisplay(c.String("progress"), os.Stderr)
	if err != nil {
		return err
	}

	engine, err := lineembed.NewEngine(cfg, lineembed.WithObserver(display.observe))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := engine.Retry(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No failed runs to retry")
		return nil
	}
	return summarize(c.App.Writer, results)
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg := loadConfig(c)
	if cfg.Run.DB == "" {
		return fmt.Errorf("database path is required")
	}

	backend, err := badger.OpenBackend(cfg.Run.DB, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewReportRepository(backend)
	defer repo.Close()

	var reports []*core.RunReport
	if name := c.String("status"); name != "" {
		status, err := core.ParseRunStatus(name)
		if err != nil {
			return err
		}
		reports, err = repo.ListReportsByStatus(ctx, status)
		if err != nil {
			return err
		}
	} else {
		reports, err = repo.ListReports(ctx)
		if err != nil {
			return err
		}
	}

	return printReports(c.App.Writer, reports)
}

// expandPatterns resolves doublestar patterns into a sorted, de-duplicated
// list of input files. Files that are already outputs (their name ends with
// suffix before the extension) are skipped. A pattern without glob syntax is
// kept as-is so a missing file surfaces as a run error.
func expandPatterns(patterns []string, suffix string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if seen[path] || isOutput(path, suffix) {
			return
		}
		seen[path] = true
		out = append(out, path)
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func isOutput(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(name, suffix)
}

// summarize prints one line per result and fails when any run failed.
func summarize(w io.Writer, results []jobs.Result) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "FAILED %s: %v\n", res.Job.InputPath, res.Err)
			continue
		}
		s := res.Report.Final
		fmt.Fprintf(w, "OK     %s -> %s (%d embedded, %d skipped, %d unparseable in %s)\n",
			res.Job.InputPath, res.Job.OutputPath, s.Processed, s.Skipped, s.Errors,
			res.Report.Elapsed.Round(time.Millisecond))
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(results)), 1)
	}
	return nil
}

func printReports(w io.Writer, reports []*core.RunReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tEMBEDDED\tSKIPPED\tERRORS\tSTARTED\tINPUT\tMESSAGE")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.Status, r.Processed, r.Skipped, r.Errors,
			r.StartedAt.Local().Format(time.DateTime), r.InputPath, r.Error)
	}
	return tw.Flush()
}

// progressDisplay renders run snapshots for every job.
type progressDisplay struct {
	mode     string
	w        io.Writer
	mu       sync.Mutex
	bars     map[string]*progressbar.ProgressBar
	trackers map[string]*pipeline.ProgressTracker
}

func newProgressDisplay(mode string, w io.Writer) (*progressDisplay, error) {
	switch mode {
	case "bar", "text", "none":
	default:
		return nil, fmt.Errorf("invalid progress mode %q: must be one of bar, text, none", mode)
	}
	return &progressDisplay{
		mode:     mode,
		w:        w,
		bars:     make(map[string]*progressbar.ProgressBar),
		trackers: make(map[string]*pipeline.ProgressTracker),
	}, nil
}

func (d *progressDisplay) observe(job jobs.Job, s core.Snapshot) {
	switch d.mode {
	case "bar":
		d.observeBar(job, s)
	case "text":
		d.mu.Lock()
		t, ok := d.trackers[s.RunID]
		if !ok {
			t = pipeline.NewProgressTracker(d.w, filepath.Base(job.InputPath), 5)
			d.trackers[s.RunID] = t
		}
		d.mu.Unlock()
		t.Observe(s)
	}
}

func (d *progressDisplay) observeBar(job jobs.Job, s core.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bar, ok := d.bars[s.RunID]
	if !ok {
		bar = progressbar.NewOptions64(s.TotalBytes,
			progressbar.OptionSetWriter(d.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan]"+filepath.Base(job.InputPath)+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(d.w)
			}),
		)
		d.bars[s.RunID] = bar
	}

	switch s.Status {
	case core.StatusDone:
		_ = bar.Finish()
		delete(d.bars, s.RunID)
	case core.StatusFailed:
		_ = bar.Exit()
		fmt.Fprintln(d.w)
		delete(d.bars, s.RunID)
	default:
		_ = bar.Set64(s.ConsumedBytes)
	}
}
