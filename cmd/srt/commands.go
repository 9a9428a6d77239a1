package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/sitrise/internal/api"
	"github.com/banshee-data/sitrise/internal/db"
	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/srt/analysis"
	"github.com/banshee-data/sitrise/internal/srt/charts"
)

// usageError marks errors caused by bad invocation; they exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func isUsage(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o options
	fs := newFlagSet("analyze", &o, stderr)
	plotPath := fs.String("plot", "", "write the hip trajectory PNG to this file")
	htmlPath := fs.String("html", "", "write the interactive metrics page to this file")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"analyze takes exactly one video path"}
	}
	videoPath := fs.Arg(0)

	a, poses, err := o.analyzer()
	if err != nil {
		return err
	}
	defer poses.Close()

	var store *db.ReportStore
	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		store = db.NewReportStore(database, nil)
	}

	report, err := a.Analyze(ctx, videoPath)
	if err != nil {
		if store != nil && (errors.Is(err, analysis.ErrDecode) || errors.Is(err, analysis.ErrInsufficientFrames)) {
			if failed, serr := store.RecordFailure("", videoPath, err); serr == nil {
				monitoring.Logf("recorded failed analysis %s", failed.ID)
			} else {
				monitoring.Warnf("failed to record failed analysis: %v", serr)
			}
		}
		return err
	}

	if store != nil {
		if err := store.Save(report); err != nil {
			return fmt.Errorf("failed to store report: %w", err)
		}
	}
	if *plotPath != "" {
		if err := charts.WriteTrajectoryPNG(report, *plotPath); err != nil {
			return err
		}
	}
	if *htmlPath != "" {
		if err := writeHTML(report, *htmlPath); err != nil {
			return err
		}
	}
	return printReport(stdout, report, *asJSON)
}

func writeHTML(r *analysis.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := charts.RenderMetricsHTML(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSubmit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o options
	fs := newFlagSet("submit", &o, stderr)
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"submit takes exactly one video path"}
	}

	report, err := api.NewClient(o.server, nil).Analyze(ctx, fs.Arg(0))
	if report != nil {
		if perr := printReport(stdout, report, *asJSON); perr != nil {
			return perr
		}
	}
	return err
}

// printReport writes r as indented JSON or as a short text summary.
func printReport(w io.Writer, r *analysis.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "report   %s (%s)\n", r.ID, r.Status)
	fmt.Fprintf(w, "video    %s\n", r.VideoPath)
	if r.Status == analysis.StatusFailed {
		fmt.Fprintf(w, "error    %s\n", r.Error)
		return nil
	}
	fmt.Fprintf(w, "scores   sit %.2f  rise %.2f  total %.2f / 10\n", r.SitScore, r.RiseScore, r.TotalScore)
	fmt.Fprintf(w, "indices  postural control %.2f  balance %.2f  coordination %.2f\n",
		r.PosturalControl, r.Balance, r.Coordination)
	fmt.Fprintf(w, "frames   %d sampled, %d with a pose, transition at %d (%s)\n",
		r.Performance.FrameCount, r.Performance.PoseCount, r.Performance.TransitionIndex, r.Performance.TransitionMethod)
	printList(w, "strengths", r.Feedback.Strengths)
	printList(w, "improvements", r.Feedback.Improvements)
	printList(w, "recommendations", r.Feedback.Recommendations)
	printList(w, "warnings", r.Performance.Warnings)
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, s := range items {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	var o options
	fs := newFlagSet("serve", &o, stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.dbPath == "" {
		return usageError{"serve requires -db"}
	}
	if len(o.allowDirs) == 0 {
		return usageError{"serve requires at least one -allow-dir"}
	}

	a, poses, err := o.analyzer()
	if err != nil {
		return err
	}
	defer poses.Close()

	database, err := db.NewDB(o.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	mux := api.NewServer(a, db.NewReportStore(database, nil), o.allowDirs).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    o.listen,
		Handler: api.LoggingMiddleware(mux),
	}

	var wg sync.WaitGroup
	errc := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitoring.Logf("listening on %s", o.listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	wg.Wait()
	monitoring.Logf("graceful shutdown complete")
	return nil
}

func runMigrate(args []string, stdout, stderr io.Writer) error {
	var o options
	fs := newFlagSet("migrate", &o, stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.dbPath == "" {
		return usageError{"migrate requires -db"}
	}
	if fs.NArg() != 1 {
		return usageError{"usage: srt migrate -db FILE up|down|version"}
	}

	database, err := db.OpenDB(o.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	migrations := db.MigrationsFS()

	switch action := strings.ToLower(fs.Arg(0)); action {
	case "up":
		err = database.MigrateUp(migrations)
	case "down":
		err = database.MigrateDown(migrations)
	case "version":
	default:
		return usageError{fmt.Sprintf("unknown migrate action %q", action)}
	}
	if err != nil {
		return err
	}

	v, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	latest, err := db.LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "version %d of %d (dirty: %v)\n", v, latest, dirty)
	return nil
}
