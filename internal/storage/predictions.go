package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PredictionRecord is one logged classification.
type PredictionRecord struct {
	ID         string
	ModelID    string
	Source     string
	SourceRef  string
	Title      string
	Excerpt    string
	Label      string
	Confidence float64
	ProbFake   float64
	Degraded   bool
	CreatedAt  time.Time
}

// PredictionFilter narrows RecentPredictions. Zero fields do not filter.
type PredictionFilter struct {
	Label  string
	Source string
	Since  time.Time
	Limit  int
}

var predictionColumns = []string{
	"id", "model_id", "source", "source_ref", "title", "excerpt",
	"label", "confidence", "prob_fake", "degraded", "created_at",
}

// RecordPrediction stores rec. Empty ID and zero CreatedAt are filled in and
// the excerpt is trimmed to ExcerptMaxRunes.
func (db *DB) RecordPrediction(ctx context.Context, rec *PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	rec.Excerpt = Excerpt(rec.Excerpt, ExcerptMaxRunes)
	rec.Title = SanitizeUTF8(rec.Title)

	query, args, err := psql.Insert(tablePredictions).
		Columns(predictionColumns...).
		Values(
			rec.ID, rec.ModelID, rec.Source, rec.SourceRef, rec.Title, rec.Excerpt,
			rec.Label, rec.Confidence, rec.ProbFake, rec.Degraded, rec.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build prediction insert: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}

	return nil
}

// RecentPredictions returns the newest predictions matching f.
func (db *DB) RecentPredictions(ctx context.Context, f PredictionFilter) ([]PredictionRecord, error) {
	query, args, err := recentPredictionsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build predictions query: %w", err)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PredictionRecord, error) {
		var r PredictionRecord

		err := row.Scan(
			&r.ID, &r.ModelID, &r.Source, &r.SourceRef, &r.Title, &r.Excerpt,
			&r.Label, &r.Confidence, &r.ProbFake, &r.Degraded, &r.CreatedAt,
		)

		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan predictions: %w", err)
	}

	return out, nil
}

func recentPredictionsQuery(f PredictionFilter) sq.SelectBuilder {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	limit = min(limit, MaxRecentLimit)

	q := psql.Select(predictionColumns...).From(tablePredictions)

	if f.Label != "" {
		q = q.Where(sq.Eq{"label": f.Label})
	}

	if f.Source != "" {
		q = q.Where(sq.Eq{"source": f.Source})
	}

	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": f.Since})
	}

	return q.OrderBy("created_at DESC").Limit(uint64(limit))
}

// LabelCounts returns the number of predictions per label since the given
// time. A zero since counts everything.
func (db *DB) LabelCounts(ctx context.Context, since time.Time) (map[string]int64, error) {
	q := psql.Select("label", "COUNT(*)").From(tablePredictions).GroupBy("label")
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": since})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build label counts query: %w", err)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query label counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)

	for rows.Next() {
		var (
			label string
			n     int64
		)

		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}

		counts[label] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("label counts rows: %w", err)
	}

	return counts, nil
}

// SeenSourceRefs reports which refs already have a prediction from source.
func (db *DB) SeenSourceRefs(ctx context.Context, source string, refs []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(refs))
	if len(refs) == 0 {
		return seen, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT source_ref FROM predictions WHERE source = $1 AND source_ref = ANY($2)`,
		source, refs)
	if err != nil {
		return nil, fmt.Errorf("query seen refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan seen ref: %w", err)
		}

		seen[ref] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seen refs rows: %w", err)
	}

	return seen, nil
}
