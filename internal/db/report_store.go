package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/sitrise/internal/srt/analysis"
	"github.com/banshee-data/sitrise/internal/timeutil"
)

var (
	// ErrReportNotFound is returned when no report has the requested id.
	ErrReportNotFound = errors.New("report not found")

	// ErrIncompleteReport is returned by Save for a report without an ID or
	// creation time.
	ErrIncompleteReport = errors.New("report has no id or creation time")
)

// ReportSummary is the list view of a stored report.
type ReportSummary struct {
	ID            string          `json:"id"`
	Status        analysis.Status `json:"status"`
	VideoPath     string          `json:"video_path"`
	SitScore      float64         `json:"sit_score"`
	RiseScore     float64         `json:"rise_score"`
	TotalScore    float64         `json:"total_score"`
	WarningCount  int             `json:"warning_count"`
	Error         string          `json:"error,omitempty"`
	EngineVersion string          `json:"engine_version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReportStore keeps reports as a JSON document plus the summary columns
// needed for listing.
type ReportStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewReportStore returns a store over db. A nil clock means the wall clock.
func NewReportStore(db *DB, clock timeutil.Clock) *ReportStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ReportStore{db: db, clock: clock}
}

// Save inserts r as built. It never modifies r.
func (s *ReportStore) Save(r *analysis.Report) error {
	if r == nil {
		return errors.New("nil report")
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		return ErrIncompleteReport
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", r.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO reports (
			id, status, video_path, sit_score, rise_score, total_score,
			warning_count, error, engine_version, created_at, report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Status), r.VideoPath, r.SitScore, r.RiseScore, r.TotalScore,
		len(r.Performance.Warnings), r.Error, r.EngineVersion, r.CreatedAt.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the stored report with the given id.
func (s *ReportStore) Get(id string) (*analysis.Report, error) {
	var doc string
	err := s.db.QueryRow("SELECT report_json FROM reports WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	var r analysis.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &r, nil
}

// List returns up to limit summaries, newest first. A limit <= 0 returns
// every report.
func (s *ReportStore) List(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, status, video_path, sit_score, rise_score, total_score,
		       warning_count, error, engine_version, created_at
		FROM reports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReportSummary{}
	for rows.Next() {
		var (
			rs        ReportSummary
			status    string
			createdAt int64
		)
		if err := rows.Scan(&rs.ID, &status, &rs.VideoPath, &rs.SitScore, &rs.RiseScore, &rs.TotalScore,
			&rs.WarningCount, &rs.Error, &rs.EngineVersion, &createdAt); err != nil {
			return nil, err
		}
		rs.Status = analysis.Status(status)
		rs.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordFailure stores the failed-run record for videoPath and returns it.
func (s *ReportStore) RecordFailure(id, videoPath string, cause error) (*analysis.Report, error) {
	r := analysis.NewFailedReport(id, videoPath, cause, s.clock.Now().UTC())
	if err := s.Save(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the report with the given id.
func (s *ReportStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}
