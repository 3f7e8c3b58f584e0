// Package updater runs one signup sync: fetch the sheet export, tabulate
// the category column, merge with the published tally and rewrite it.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pascomapp/tally-sync/internal/sheets"
	"github.com/pascomapp/tally-sync/internal/store"
	"github.com/pascomapp/tally-sync/internal/tabulate"
	"github.com/pascomapp/tally-sync/internal/tally"
)

// SkipReason explains why a run left the published tally untouched.
type SkipReason string

const (
	// SkipFetchFailed means the sheet export could not be fetched.
	SkipFetchFailed SkipReason = "fetch-failed"
	// SkipNoColumn means no category column was found in the header row.
	SkipNoColumn SkipReason = "no-column"
	// SkipNoData means the sheet had no countable signup values.
	SkipNoData SkipReason = "no-data"
)

// Result reports one sync run.
type Result struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	// Skip is set when the run ended early; the artifact was not touched.
	Skip SkipReason
	// Persisted is true once the merged tally reached disk.
	Persisted bool
	Rows      int
	Column    string
	Fresh     int
	New       []string
	Stats     tally.Stats
}

// Duration returns the run's wall time.
func (r *Result) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Fetcher provides the signup rows. *sheets.Client implements it.
type Fetcher interface {
	FetchTable(ctx context.Context, sheetID, gid string) (*sheets.Table, error)
}

// Options configures an Updater.
type Options struct {
	SheetID string
	GID     string
	// Detector locates the category column. Nil uses the standard
	// keyword detector.
	Detector tabulate.Detector
}

// Updater orchestrates sync runs against one sheet and one tally file.
type Updater struct {
	fetcher  Fetcher
	store    *store.Store
	detector tabulate.Detector
	logger   *slog.Logger
	sheetID  string
	gid      string
}

// New creates an updater.
func New(fetcher Fetcher, st *store.Store, opts Options, logger *slog.Logger) *Updater {
	detector := opts.Detector
	if detector == nil {
		detector = tabulate.NewKeywordDetector()
	}
	return &Updater{
		fetcher:  fetcher,
		store:    st,
		detector: detector,
		logger:   logger,
		sheetID:  opts.SheetID,
		gid:      opts.GID,
	}
}

// Run executes one sync. Fetch and tabulation problems are soft: they
// are logged, recorded on the Result and leave the published tally
// untouched. Only a failed persist returns an error.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     newRunID(),
		StartedAt: time.Now(),
	}
	log := u.logger.With("run_id", result.RunID)

	log.Info("sync started", "sheet_id", u.sheetID, "gid", u.gid)

	table, err := u.fetcher.FetchTable(ctx, u.sheetID, u.gid)
	if err != nil {
		log.Error("sheet fetch failed, keeping published tally", "error", err)
		return u.skip(result, SkipFetchFailed, log), nil
	}
	result.Rows = len(table.Rows)

	column, ok := u.detector.Detect(table.Header)
	if !ok {
		log.Warn("category column not found", "header_width", len(table.Header))
		return u.skip(result, SkipNoColumn, log), nil
	}
	result.Column = table.HeaderAt(column)
	log.Debug("category column detected", "index", column, "header", result.Column)

	fresh := tabulate.Count(result.Column, table.Column(column))
	result.Fresh = len(fresh)
	if len(fresh) == 0 {
		log.Info("no countable signups in sheet, keeping published tally", "rows", result.Rows)
		return u.skip(result, SkipNoData, log), nil
	}

	existing := u.store.Load()

	merged, added := tally.Merge(existing, fresh)
	result.New = added
	for _, label := range added {
		log.Info("new category observed", "label", label, "count", merged[label])
	}

	if err := u.store.Save(merged); err != nil {
		result.CompletedAt = time.Now()
		return result, fmt.Errorf("persist tally: %w", err)
	}
	result.Persisted = true
	result.Stats = merged.Stats()
	result.CompletedAt = time.Now()

	log.Info("sync complete",
		"duration", result.Duration(),
		"rows", result.Rows,
		"new_categories", len(result.New),
		"total_signups", result.Stats.Total,
		"active_categories", result.Stats.Active,
		"mean_per_category", fmt.Sprintf("%.1f", result.Stats.Mean),
	)
	return result, nil
}

// skip finalizes a run that leaves the artifact untouched.
func (u *Updater) skip(result *Result, reason SkipReason, log *slog.Logger) *Result {
	result.Skip = reason
	result.CompletedAt = time.Now()
	log.Info("sync skipped", "reason", string(reason), "duration", result.Duration())
	return result
}

// newRunID tags a sync run for log correlation.
func newRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		// No entropy; correlate by time instead.
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + id
}
