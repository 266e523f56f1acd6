// Package decision turns P(FAKE) into a labeled decision with a confidence.
//
// The operating threshold is deliberately configurable: a threshold above
// the 0.5 midpoint makes the detector slower to call an article FAKE,
// trading recall of FAKE for fewer false accusations.
package decision

import (
	"math"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const (
	DefaultThreshold          = 0.70
	DefaultFallbackConfidence = 0.9

	opNewPolicy = "decision.new_policy"
)

// Decision is the outcome for one article. Confidence is the probability
// mass assigned to Label.
type Decision struct {
	Label      domain.Label
	Confidence float64
	// Degraded marks decisions made without a probability from the scorer.
	Degraded bool
}

// Policy applies a fixed threshold. The zero value is not usable; use
// NewPolicy or Default.
type Policy struct {
	threshold float64
}

// NewPolicy returns a policy for threshold, which must be within [0, 1].
func NewPolicy(threshold float64) (Policy, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return Policy{}, errors.Ef(errors.KindInvalidInput, opNewPolicy, "threshold %v outside [0, 1]", threshold)
	}

	return Policy{threshold: threshold}, nil
}

// Default returns the policy with DefaultThreshold.
func Default() Policy {
	return Policy{threshold: DefaultThreshold}
}

// Threshold returns the operating threshold.
func (p Policy) Threshold() float64 {
	return p.threshold
}

// Decide labels an article FAKE when probFake reaches the threshold.
func (p Policy) Decide(probFake float64) Decision {
	probFake = clamp(probFake)

	if probFake >= p.threshold {
		return Decision{Label: domain.LabelFake, Confidence: probFake}
	}

	return Decision{Label: domain.LabelReal, Confidence: 1 - probFake}
}

// Fallback is used when the scorer produced a hard label but no usable
// probability. The predicted class gets DefaultFallbackConfidence and the
// other class the complement.
func (p Policy) Fallback(predicted domain.Label) Decision {
	return Decision{
		Label:      predicted,
		Confidence: DefaultFallbackConfidence,
		Degraded:   true,
	}
}

// ProbFake returns the P(FAKE) implied by d. For degraded decisions this is
// the fallback split, not a model output.
func (d Decision) ProbFake() float64 {
	if d.Label == domain.LabelFake {
		return d.Confidence
	}

	return 1 - d.Confidence
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
