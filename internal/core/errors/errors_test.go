package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", errors.New("boom"), KindUnknown},
		{"direct", E(KindNotFitted, "vectorizer.transform", nil), KindNotFitted},
		{"wrapped", fmt.Errorf("predict: %w", E(KindTraining, "scorer.predict", nil)), KindTraining},
		{"formatted", Ef(KindUnknownLabel, "label.parse", "unknown label value: %q", "maybe"), KindUnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("stage: %w", E(KindNotFitted, "vectorizer.transform", "fit first"))

	require.ErrorIs(t, err, ErrNotFitted)
	require.NotErrorIs(t, err, ErrNotTrained)
	assert.Equal(t, "stage: vectorizer.transform: fit first", err.Error())
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := E(KindTraining, "scorer.train", cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrNotTrained)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "probability unavailable", KindProbabilityUnavailable.String())
	assert.Equal(t, "kind(200)", Kind(200).String())
}
