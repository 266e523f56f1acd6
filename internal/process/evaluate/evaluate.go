// Package evaluate scores predicted labels against ground truth with FAKE as
// the positive class.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const (
	opEvaluate  = "evaluate"
	opConfusion = "evaluate.confusion"

	FieldAccuracy  = "accuracy"
	FieldPrecision = "precision"
	FieldRecall    = "recall"
	FieldF1        = "f1_score"
)

// LabelValue is any accepted label representation: the enum itself, its
// integer encoding, or a "FAKE"/"REAL"/"0"/"1" string in any case.
type LabelValue interface {
	domain.Label | int | string
}

// Confusion counts outcomes with FAKE as the positive class.
type Confusion struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Matrix returns [[TN, FP], [FN, TP]]: rows are true labels and columns are
// predicted labels, both in [REAL, FAKE] order.
func (c Confusion) Matrix() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

// Total returns the number of scored pairs.
func (c Confusion) Total() int {
	return c.TN + c.FP + c.FN + c.TP
}

// String renders a true-by-predicted table with FAKE first in both
// directions, so the FAKE row reads TP FN and the REAL row FP TN.
func (c Confusion) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-10s %10s %10s\n", "true\\pred", domain.LabelFake, domain.LabelReal)
	fmt.Fprintf(&b, "%-10s %10d %10d\n", domain.LabelFake, c.TP, c.FN)
	fmt.Fprintf(&b, "%-10s %10d %10d\n", domain.LabelReal, c.FP, c.TN)

	return b.String()
}

// Metrics are the summary scores for one evaluation.
type Metrics struct {
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1_score"`
	Confusion Confusion `json:"confusion"`
}

// Field is one named metric value.
type Field struct {
	Name  string
	Value float64
}

// Fields returns the metrics in report order.
func (m Metrics) Fields() []Field {
	return []Field{
		{Name: FieldAccuracy, Value: m.Accuracy},
		{Name: FieldPrecision, Value: m.Precision},
		{Name: FieldRecall, Value: m.Recall},
		{Name: FieldF1, Value: m.F1},
	}
}

// Evaluate normalizes both sequences and computes the metrics. A metric whose
// denominator is zero is reported as 0.
func Evaluate[T LabelValue](yTrue, yPred []T) (Metrics, error) {
	c, err := confusion(opEvaluate, yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}

	return FromConfusion(c), nil
}

// ConfusionOf normalizes both sequences and counts outcomes.
func ConfusionOf[T LabelValue](yTrue, yPred []T) (Confusion, error) {
	return confusion(opConfusion, yTrue, yPred)
}

// FromConfusion derives the metrics from already counted outcomes.
func FromConfusion(c Confusion) Metrics {
	precision := ratio(c.TP, c.TP+c.FP)
	recall := ratio(c.TP, c.TP+c.FN)

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Metrics{
		Accuracy:  ratio(c.TP+c.TN, c.Total()),
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		Confusion: c,
	}
}

func confusion[T LabelValue](op string, yTrue, yPred []T) (Confusion, error) {
	if len(yTrue) != len(yPred) {
		return Confusion{}, errors.Ef(errors.KindLengthMismatch, op, "%d true labels, %d predicted", len(yTrue), len(yPred))
	}

	trueLabels, err := normalize(op, yTrue)
	if err != nil {
		return Confusion{}, err
	}

	predLabels, err := normalize(op, yPred)
	if err != nil {
		return Confusion{}, err
	}

	var c Confusion

	for i, actual := range trueLabels {
		predicted := predLabels[i]

		switch {
		case actual == domain.LabelFake && predicted == domain.LabelFake:
			c.TP++
		case actual == domain.LabelFake:
			c.FN++
		case predicted == domain.LabelFake:
			c.FP++
		default:
			c.TN++
		}
	}

	return c, nil
}

func normalize[T LabelValue](op string, values []T) ([]domain.Label, error) {
	out := make([]domain.Label, len(values))

	for i, v := range values {
		l, err := toLabel(v)
		if err != nil {
			return nil, errors.E(errors.KindUnknownLabel, op, fmt.Errorf("position %d: %w", i, err))
		}

		out[i] = l
	}

	return out, nil
}

func toLabel[T LabelValue](v T) (domain.Label, error) {
	switch x := any(v).(type) {
	case domain.Label:
		return domain.LabelFromInt(int(x))
	case int:
		return domain.LabelFromInt(x)
	case string:
		return domain.ParseLabel(x)
	default:
		return 0, fmt.Errorf("unsupported label type %T", v)
	}
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}

	return float64(numerator) / float64(denominator)
}
