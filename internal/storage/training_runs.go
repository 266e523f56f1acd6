package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TrainingRun is one completed training invocation and its held-out metrics.
type TrainingRun struct {
	ID             string
	ModelID        string
	Threshold      float64
	Accuracy       float64
	Precision      float64
	Recall         float64
	F1             float64
	TN             int
	FP             int
	FN             int
	TP             int
	TrainCount     int
	TestCount      int
	VocabularySize int
	Duration       time.Duration
	CreatedAt      time.Time
}

var trainingRunColumns = []string{
	"id", "model_id", "threshold", "accuracy", "precision", "recall", "f1",
	"tn", "fp", "fn", "tp", "train_count", "test_count", "vocabulary_size", "duration_ms", "created_at",
}

// RecordTrainingRun stores run. Empty ID and zero CreatedAt are filled in.
func (db *DB) RecordTrainingRun(ctx context.Context, run *TrainingRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql.Insert(tableTrainingRuns).
		Columns(trainingRunColumns...).
		Values(
			run.ID, run.ModelID, run.Threshold, run.Accuracy, run.Precision, run.Recall, run.F1,
			run.TN, run.FP, run.FN, run.TP, run.TrainCount, run.TestCount, run.VocabularySize,
			run.Duration.Milliseconds(), run.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build training run insert: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert training run: %w", err)
	}

	return nil
}

// LatestTrainingRun returns the most recent run for modelID, or nil when the
// model has none.
func (db *DB) LatestTrainingRun(ctx context.Context, modelID string) (*TrainingRun, error) {
	query, args, err := psql.Select(trainingRunColumns...).
		From(tableTrainingRuns).
		Where("model_id = ?", modelID).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build training run query: %w", err)
	}

	var (
		run        TrainingRun
		durationMs int64
	)

	err = db.Pool.QueryRow(ctx, query, args...).Scan(
		&run.ID, &run.ModelID, &run.Threshold, &run.Accuracy, &run.Precision, &run.Recall, &run.F1,
		&run.TN, &run.FP, &run.FN, &run.TP, &run.TrainCount, &run.TestCount, &run.VocabularySize,
		&durationMs, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error here
	}

	if err != nil {
		return nil, fmt.Errorf("query latest training run: %w", err)
	}

	run.Duration = time.Duration(durationMs) * time.Millisecond

	return &run, nil
}
