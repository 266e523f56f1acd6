package domain

import (
	"strconv"
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

// Label is the class of a news item. The integer values are the external
// encoding used for metrics and model class ordering.
type Label int

const (
	LabelFake Label = 0
	LabelReal Label = 1
)

const (
	labelNameFake = "FAKE"
	labelNameReal = "REAL"

	opParseLabel = "label.parse"
)

// Labels lists every label in class order.
var Labels = []Label{LabelFake, LabelReal}

func (l Label) String() string {
	switch l {
	case LabelFake:
		return labelNameFake
	case LabelReal:
		return labelNameReal
	default:
		return "Label(" + strconv.Itoa(int(l)) + ")"
	}
}

// Int returns the external integer encoding.
func (l Label) Int() int {
	return int(l)
}

// Valid reports whether l is FAKE or REAL.
func (l Label) Valid() bool {
	return l == LabelFake || l == LabelReal
}

// Other returns the opposite class.
func (l Label) Other() Label {
	if l == LabelFake {
		return LabelReal
	}

	return LabelFake
}

// ParseLabel accepts "FAKE"/"REAL" in any case and the numeric forms "0"/"1",
// ignoring surrounding whitespace.
func ParseLabel(s string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case labelNameFake, "0":
		return LabelFake, nil
	case labelNameReal, "1":
		return LabelReal, nil
	default:
		return 0, errors.Ef(errors.KindUnknownLabel, opParseLabel, "unknown label value: %q", s)
	}
}

// LabelFromInt maps the external encoding back to a Label.
func LabelFromInt(v int) (Label, error) {
	l := Label(v)
	if !l.Valid() {
		return 0, errors.Ef(errors.KindUnknownLabel, opParseLabel, "unknown label value: %d", v)
	}

	return l, nil
}

// MarshalText encodes the label by name.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, errors.Ef(errors.KindUnknownLabel, "label.marshal", "unknown label value: %d", int(l))
	}

	return []byte(l.String()), nil
}

// UnmarshalText accepts every form ParseLabel accepts.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}
