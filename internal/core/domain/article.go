// Package domain holds the value types shared by every stage of the
// classifier: labels and labeled articles.
package domain

import (
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const (
	opNewArticle    = "article.new"
	previewTitleLen = 30
)

// LabeledArticle is a single training or evaluation example. It is immutable
// once constructed.
type LabeledArticle struct {
	title string
	body  string
	label Label
}

// NewLabeledArticle trims title and body and validates them.
func NewLabeledArticle(title, body string, label Label) (LabeledArticle, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if title == "" || body == "" {
		return LabeledArticle{}, errors.E(errors.KindDataFormat, opNewArticle, "title/text cannot be empty")
	}

	if !label.Valid() {
		return LabeledArticle{}, errors.Ef(errors.KindUnknownLabel, opNewArticle, "unknown label value: %d", int(label))
	}

	return LabeledArticle{title: title, body: body, label: label}, nil
}

func (a LabeledArticle) Title() string { return a.title }
func (a LabeledArticle) Body() string  { return a.body }
func (a LabeledArticle) Label() Label  { return a.label }

// Text returns the text the model is trained and evaluated on. With
// includeTitle the title is prepended to the body.
func (a LabeledArticle) Text(includeTitle bool) string {
	if includeTitle {
		return a.title + " " + a.body
	}

	return a.body
}

func (a LabeledArticle) String() string {
	snippet := a.title
	if runes := []rune(snippet); len(runes) > previewTitleLen {
		snippet = string(runes[:previewTitleLen])
	}

	return "LabeledArticle(label=" + a.label.String() + ", title='" + snippet + "...')"
}

// LabelsOf extracts the labels of articles in order.
func LabelsOf(articles []LabeledArticle) []Label {
	out := make([]Label, len(articles))
	for i, a := range articles {
		out[i] = a.label
	}

	return out
}
