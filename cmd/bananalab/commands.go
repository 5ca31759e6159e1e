package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bananalab/internal/app"
	"bananalab/internal/logging"
	"bananalab/internal/memory"
	"bananalab/internal/metrics"
	"bananalab/internal/server"
	"bananalab/internal/startup"
	"bananalab/internal/thumbnail"
	"bananalab/internal/watch"

	"github.com/spf13/cobra"
)

var (
	renderDataURI bool
	batchDB       string
	watchDB       string
	watchDebounce time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <page.json>",
	Short: "Render the pages of one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var batchCmd = &cobra.Command{
	Use:   "batch <file|dir>",
	Short: "Render every page document under a path",
	Long: `Renders each .json page document (hidden files and directories are
skipped). A document that fails to load is reported and skipped; pages that
fail to render produce placeholder thumbnails.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Render a directory, then re-render documents as they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	renderCmd.Flags().BoolVar(&renderDataURI, "data-uri", false, "print data URIs instead of writing files")
	batchCmd.Flags().StringVar(&batchDB, "db", "", "SQLite thumbnail store (overrides DATABASE_PATH)")
	watchCmd.Flags().StringVar(&watchDB, "db", "", "SQLite thumbnail store (overrides DATABASE_PATH)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed document is rendered")
	rootCmd.AddCommand(renderCmd, batchCmd, watchCmd)
}

// session is one wired engine plus its shutdown.
type session struct {
	ctx    context.Context
	app    *app.App
	cfg    *startup.Config
	target image.Point
	close  func()
}

func target() (image.Point, error) {
	if width <= 0 || height <= 0 {
		return image.Point{}, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}
	return image.Pt(width, height), nil
}

// newSession loads configuration, applies flag overrides and wires the
// engine. The operational server runs when METRICS_ENABLED is set.
func newSession(dbPath string, quiet bool) (*session, error) {
	size, err := target()
	if err != nil {
		return nil, err
	}

	memory.ConfigureFromEnv()
	cfg, err := startup.LoadConfig(quiet)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		if cfg.OutputDir, err = filepath.Abs(outDir); err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
	}
	if dbPath != "" {
		if cfg.DatabasePath, err = filepath.Abs(dbPath); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	metrics.InitializeMetrics()
	info := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.New(ctx, cfg)
	if err != nil {
		stop()
		return nil, err
	}

	done := make(chan struct{})
	if cfg.MetricsEnabled {
		srv := server.New(a.ServerOptions())
		startup.LogHTTPRoutes(srv.Router(), cfg.MetricsPort)
		go func() {
			defer close(done)
			if err := srv.ListenAndServe(ctx, ":"+cfg.MetricsPort); err != nil {
				logging.Error("Operational server error: %v", err)
			}
		}()
	} else {
		close(done)
	}

	s := &session{ctx: ctx, app: a, cfg: cfg, target: size}
	s.close = func() {
		if ctx.Err() != nil {
			startup.LogShutdownInitiated("signal")
		}
		stop()
		<-done
		if err := a.Close(); err != nil {
			logging.Warn("Close error: %v", err)
		}
		if ctx.Err() != nil {
			startup.LogShutdownComplete()
		}
	}
	return s, nil
}

func progressPrinter() thumbnail.ProgressFunc {
	if !verbose {
		return nil
	}
	return func(p thumbnail.Progress) {
		if p.PageID == "" {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", p.Percentage, p.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "[%3d%%] %s: %s\n", p.Percentage, p.PageID, p.Message)
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := newSession("", true)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	if renderDataURI {
		pages, err := s.app.LoadDocument(args[0])
		if err != nil {
			return err
		}
		results := s.app.Generator().GenerateMany(s.ctx, pages, s.target, progressPrinter())
		for _, p := range pages {
			if enc := results[p.ID]; enc != nil {
				fmt.Fprintf(out, "%s\t%s\n", p.ID, enc.DataURI())
			}
		}
		return s.ctx.Err()
	}

	res, err := s.app.ProcessDocument(s.ctx, args[0], s.target, progressPrinter())
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintln(out, f)
	}
	if res.Placeholders > 0 {
		return fmt.Errorf("%d of %d pages rendered as placeholders", res.Placeholders, res.Pages)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths, err := app.DocumentPaths(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no page documents under %s", args[0])
	}

	s, err := newSession(batchDB, false)
	if err != nil {
		return err
	}
	defer s.close()

	res, failed := s.app.ProcessAll(s.ctx, paths, s.target, progressPrinter())
	startup.LogBatchSummary(res.Pages, res.Placeholders, res.Duration)
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", args[0])
	}

	s, err := newSession(watchDB, false)
	if err != nil {
		return err
	}
	defer s.close()

	err = s.app.Watch(s.ctx, args[0], watchDebounce, s.target)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
