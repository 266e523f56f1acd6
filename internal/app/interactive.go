package app

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/interactive"
	"github.com/lueurxax/fakenews-detector/internal/process/pipeline"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

// RunInteractive classifies lines read from in until the user quits.
// With storage configured every answer is logged as an interactive
// prediction.
func (a *App) RunInteractive(ctx context.Context, in io.Reader) error {
	l, err := a.loadPipeline()
	if err != nil {
		return err
	}

	var predictor interactive.Predictor = l.pipeline
	if a.database != nil {
		predictor = &recordingPredictor{
			ctx:     ctx,
			next:    l.pipeline,
			store:   a.database,
			modelID: l.bundle.Manifest.ID,
			logger:  a.logger,
		}
	}

	return interactive.Run(ctx, in, a.out, predictor)
}

type predictionRecorder interface {
	RecordPrediction(ctx context.Context, rec *db.PredictionRecord) error
}

type recordingPredictor struct {
	ctx     context.Context //nolint:containedctx // scoped to one interactive session
	next    interactive.Predictor
	store   predictionRecorder
	modelID string
	logger  *zerolog.Logger
}

func (r *recordingPredictor) PredictFromText(raw string) (pipeline.Prediction, error) {
	p, err := r.next.PredictFromText(raw)
	if err != nil {
		return p, err
	}

	rec := &db.PredictionRecord{
		ModelID:    r.modelID,
		Source:     db.SourceInteractive,
		Excerpt:    raw,
		Label:      p.Label.String(),
		Confidence: p.Confidence,
		ProbFake:   p.ProbFake,
		Degraded:   p.Degraded,
	}

	if err := r.store.RecordPrediction(r.ctx, rec); err != nil {
		r.logger.Warn().Err(err).Msg("failed to record prediction")
	}

	return p, nil
}
