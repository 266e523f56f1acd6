package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/modelstore"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
	"github.com/lueurxax/fakenews-detector/internal/process/training"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

// reportWriter keeps the first write error so report code can stay linear.
type reportWriter struct {
	w   io.Writer
	err error
}

func (r *reportWriter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}

	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *reportWriter) metrics(title string, m evaluate.Metrics) {
	r.printf("%s\n", title)

	for _, f := range m.Fields() {
		r.printf("%s: %.4f\n", f.Name, f.Value)
	}

	r.printf("Confusion matrix (rows true, columns predicted; positive = FAKE):\n%s\n", strings.TrimRight(m.Confusion.String(), "\n"))
}

func (r *reportWriter) done() error {
	if r.err != nil {
		return fmt.Errorf("write report: %w", r.err)
	}

	return nil
}

func writeTrainingReport(w io.Writer, m modelstore.Manifest, res *training.Result) error {
	r := &reportWriter{w: w}

	r.printf("Model %s: %d training and %d test articles, %d terms\n", m.ID, res.TrainCount, res.TestCount, m.VocabularySize)
	r.metrics("Held-out metrics (P(FAKE) >= 0.5):", res.Midpoint)
	r.metrics(fmt.Sprintf("Held-out metrics (threshold %.2f):", m.Threshold), res.Thresholded)

	if res.Degraded {
		r.printf("Note: no probabilities were available; thresholded metrics use the hard labels.\n")
	}

	return r.done()
}

func writeEvaluationReport(w io.Writer, m modelstore.Manifest, threshold float64, n int, metrics evaluate.Metrics, last *db.TrainingRun) error {
	r := &reportWriter{w: w}

	r.printf("Model %s evaluated on %d articles\n", m.ID, n)
	r.metrics(fmt.Sprintf("Metrics (threshold %.2f):", threshold), metrics)

	if last != nil {
		r.printf("Recorded at training (%s): accuracy %.4f, f1_score %.4f\n",
			last.CreatedAt.Format("2006-01-02 15:04"), last.Accuracy, last.F1)
	}

	return r.done()
}
