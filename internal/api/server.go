// Package api exposes the analyzer and the stored reports over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/sitrise/internal/db"
	"github.com/banshee-data/sitrise/internal/httputil"
	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/security"
	"github.com/banshee-data/sitrise/internal/srt/analysis"
	"github.com/banshee-data/sitrise/internal/srt/charts"
	"github.com/banshee-data/sitrise/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const (
	maxRequestBody   = 64 << 10
	defaultListLimit = 50
	maxListLimit     = 500
)

// Analyzer runs one analysis. *analysis.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, videoPath string) (*analysis.Report, error)
}

type Server struct {
	analyzer    Analyzer
	reports     *db.ReportStore
	allowedDirs []string
}

// NewServer returns a Server that only analyzes videos inside allowedDirs.
func NewServer(analyzer Analyzer, reports *db.ReportStore, allowedDirs []string) *Server {
	return &Server{
		analyzer:    analyzer,
		reports:     reports,
		allowedDirs: allowedDirs,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("GET /api/reports", s.listReports)
	mux.HandleFunc("GET /api/reports/{id}", s.getReport)
	mux.HandleFunc("DELETE /api/reports/{id}", s.deleteReport)
	mux.HandleFunc("GET /api/reports/{id}/chart", s.reportChart)
	mux.HandleFunc("GET /api/reports/{id}/trajectory.png", s.reportTrajectory)
	mux.HandleFunc("GET /api/version", s.showVersion)
	return mux
}

type analyzeRequest struct {
	VideoPath string `json:"video_path"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.VideoPath == "" {
		httputil.BadRequest(w, "video_path is required")
		return
	}
	if err := security.ValidatePathWithinAllowedDirs(req.VideoPath, s.allowedDirs); err != nil {
		httputil.WriteJSONError(w, http.StatusForbidden, err.Error())
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req.VideoPath)
	switch {
	case errors.Is(err, analysis.ErrDecode), errors.Is(err, analysis.ErrInsufficientFrames):
		failed, serr := s.reports.RecordFailure("", req.VideoPath, err)
		if serr != nil {
			monitoring.Logf("failed to record failed analysis of %s: %v", req.VideoPath, serr)
			httputil.InternalServerError(w, "failed to store report")
			return
		}
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, failed)
		return
	case errors.Is(err, analysis.ErrEstimatorUnavailable):
		monitoring.Logf("analysis of %s failed: %v", req.VideoPath, err)
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "pose estimator unavailable")
		return
	case errors.Is(err, context.DeadlineExceeded):
		monitoring.Logf("analysis of %s: %v", req.VideoPath, err)
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis timed out")
		return
	case errors.Is(err, context.Canceled):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis cancelled")
		return
	case err != nil:
		monitoring.Logf("analysis of %s failed: %v", req.VideoPath, err)
		httputil.InternalServerError(w, "analysis failed")
		return
	}

	if err := s.reports.Save(report); err != nil {
		monitoring.Logf("failed to store report %s: %v", report.ID, err)
		httputil.InternalServerError(w, "failed to store report")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	summaries, err := s.reports.List(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to list reports")
		return
	}
	httputil.WriteJSONOK(w, summaries)
}

// lookup writes the error response itself and returns nil when the report
// cannot be served.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *analysis.Report {
	report, err := s.reports.Get(r.PathValue("id"))
	if errors.Is(err, db.ErrReportNotFound) {
		httputil.NotFound(w, "report not found")
		return nil
	}
	if err != nil {
		httputil.InternalServerError(w, "failed to load report")
		return nil
	}
	return report
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	if report := s.lookup(w, r); report != nil {
		httputil.WriteJSONOK(w, report)
	}
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	err := s.reports.Delete(r.PathValue("id"))
	if errors.Is(err, db.ErrReportNotFound) {
		httputil.NotFound(w, "report not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, "failed to delete report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reportChart(w http.ResponseWriter, r *http.Request) {
	report := s.lookup(w, r)
	if report == nil {
		return
	}
	var buf bytes.Buffer
	if err := charts.RenderMetricsHTML(&buf, report); err != nil {
		s.chartError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) reportTrajectory(w http.ResponseWriter, r *http.Request) {
	report := s.lookup(w, r)
	if report == nil {
		return
	}
	var buf bytes.Buffer
	if err := charts.WriteTrajectory(&buf, report); err != nil {
		s.chartError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) chartError(w http.ResponseWriter, err error) {
	if errors.Is(err, charts.ErrNoSeries) {
		httputil.NotFound(w, err.Error())
		return
	}
	monitoring.Logf("failed to render chart: %v", err)
	httputil.InternalServerError(w, "failed to render chart")
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
