package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

// Entry is one stored per-URL summary
type Entry struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	URL        string           `json:"url" yaml:"url"`
	State      models.State     `json:"state" yaml:"state"`
	StatusCode int              `json:"status_code" yaml:"status_code"`
	TotalTime  float64          `json:"total_time" yaml:"total_time"`
	PageSize   int64            `json:"page_size" yaml:"page_size"`
	Critical   int              `json:"critical" yaml:"critical"`
	Warning    int              `json:"warning" yaml:"warning"`
	Info       int              `json:"info" yaml:"info"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	Insights   []models.Insight `json:"insights" yaml:"insights"`
	RecordedAt time.Time        `json:"recorded_at" yaml:"recorded_at"`
}

// Diff describes how a URL's insights changed since its previous run
type Diff struct {
	URL           string           `json:"url" yaml:"url"`
	FirstRun      bool             `json:"first_run" yaml:"first_run"`
	Unavailable   string           `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
	PreviousRunID string           `json:"previous_run_id,omitempty" yaml:"previous_run_id,omitempty"`
	PreviousAt    time.Time        `json:"previous_at,omitempty" yaml:"previous_at,omitempty"`
	Appeared      []models.Insight `json:"appeared" yaml:"appeared"`
	Resolved      []models.Insight `json:"resolved" yaml:"resolved"`
}

// Changed reports whether any insight appeared or was resolved
func (d Diff) Changed() bool {
	return len(d.Appeared) > 0 || len(d.Resolved) > 0
}

// RecordRun stores one run and a summary row per outcome. It returns the new run ID.
func (s *Store) RecordRun(ctx context.Context, outcomes []models.Outcome) (string, error) {
	runID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, url_count) VALUES (?, ?, ?)",
		runID, now, len(outcomes)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, url, state, status_code, total_time, page_size,
			critical, warning, info, error, insights, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, out := range outcomes {
		e := entryFrom(out)
		encoded, err := json.Marshal(e.Insights)
		if err != nil {
			return "", fmt.Errorf("failed to encode insights for %s: %w", out.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, e.URL, string(e.State), e.StatusCode, e.TotalTime,
			e.PageSize, e.Critical, e.Warning, e.Info, e.Error, string(encoded), now); err != nil {
			return "", fmt.Errorf("failed to insert result for %s: %w", out.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func entryFrom(out models.Outcome) Entry {
	e := Entry{
		URL:      out.URL,
		State:    out.State,
		Error:    out.ErrorMessage(),
		Insights: []models.Insight{},
	}
	if res := out.Result; res != nil {
		e.StatusCode = res.Performance.StatusCode
		e.TotalTime = res.Performance.TotalTime
		e.PageSize = res.Performance.PageSize
		e.Critical = insights.Count(res.Insights, models.SeverityCritical)
		e.Warning = insights.Count(res.Insights, models.SeverityWarning)
		e.Info = insights.Count(res.Insights, models.SeverityInfo)
		e.Insights = append(e.Insights, res.Insights...)
	}
	return e
}

const entryColumns = `run_id, url, state, COALESCE(status_code, 0), COALESCE(total_time, 0),
	COALESCE(page_size, 0), critical, warning, info, COALESCE(error, ''), insights, recorded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e          Entry
		state      string
		encoded    string
		recordedAt string
	)
	if err := row.Scan(&e.RunID, &e.URL, &state, &e.StatusCode, &e.TotalTime, &e.PageSize,
		&e.Critical, &e.Warning, &e.Info, &e.Error, &encoded, &recordedAt); err != nil {
		return Entry{}, err
	}
	e.State = models.State(state)

	if err := json.Unmarshal([]byte(encoded), &e.Insights); err != nil {
		return Entry{}, fmt.Errorf("failed to decode insights: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse recorded_at: %w", err)
	}
	e.RecordedAt = t
	return e, nil
}

// Latest returns the most recent entry for url, or nil when there is none
func (s *Store) Latest(ctx context.Context, url string) (*Entry, error) {
	row := s.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM results WHERE url = ? ORDER BY result_id DESC LIMIT 1", url)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest entry for %s: %w", url, err)
	}
	return &e, nil
}

// List returns up to limit entries for url, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, url string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM results WHERE url = ? ORDER BY result_id DESC LIMIT ?", url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", url, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Compare diffs out against the latest successful entry for the same URL.
// Call it before recording the run that produced out. A failed outcome has
// no findings to compare, so its Diff only carries the Unavailable reason.
func (s *Store) Compare(ctx context.Context, out models.Outcome) (Diff, error) {
	d := Diff{URL: out.URL, Appeared: []models.Insight{}, Resolved: []models.Insight{}}
	if out.Result == nil {
		d.Unavailable = "analysis failed"
		if out.FailedIn != "" {
			d.Unavailable = fmt.Sprintf("analysis failed in %s", out.FailedIn)
		}
		return d, nil
	}

	prev, err := s.latestSucceeded(ctx, out.URL)
	if err != nil {
		return d, err
	}
	current := entryFrom(out).Insights
	if prev == nil {
		d.FirstRun = true
		d.Appeared = append(d.Appeared, current...)
		return d, nil
	}
	d.PreviousRunID = prev.RunID
	d.PreviousAt = prev.RecordedAt

	d.Appeared = append(d.Appeared, difference(current, prev.Insights)...)
	d.Resolved = append(d.Resolved, difference(prev.Insights, current)...)
	return d, nil
}

func (s *Store) latestSucceeded(ctx context.Context, url string) (*Entry, error) {
	row := s.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM results WHERE url = ? AND state = ? ORDER BY result_id DESC LIMIT 1",
		url, string(models.StateDone))

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load previous entry for %s: %w", url, err)
	}
	return &e, nil
}

// difference returns the insights of a whose Key is not in b, in a's order
func difference(a, b []models.Insight) []models.Insight {
	seen := make(map[string]struct{}, len(b))
	for _, in := range b {
		seen[in.Key()] = struct{}{}
	}
	var out []models.Insight
	for _, in := range a {
		if _, ok := seen[in.Key()]; !ok {
			out = append(out, in)
		}
	}
	return out
}
