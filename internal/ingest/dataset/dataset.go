// Package dataset reads labeled articles from CSV or JSONL files.
//
// CSV files need a header row with title, text and label columns (any case,
// any order, extra columns ignored). JSONL files hold one
// {"title","text","label"} object per line. Rows that cannot become a valid
// article are skipped and counted rather than failing the load.
package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const (
	colTitle = "title"
	colText  = "text"
	colLabel = "label"

	extCSV    = ".csv"
	extJSONL  = ".jsonl"
	extNDJSON = ".ndjson"

	maxScannerBufferSize    = 1024
	scannerBufferMultiplier = 64

	// ctxCheckEvery bounds how many rows are read between cancellation checks.
	ctxCheckEvery = 1024

	opLoad = "dataset.load"

	logKeyPath    = "path"
	logKeyLoaded  = "loaded"
	logKeySkipped = "skipped"
)

// Result holds the articles that passed validation.
type Result struct {
	Articles []domain.LabeledArticle
	Loaded   int
	Skipped  int
}

type Loader struct {
	logger *zerolog.Logger
}

func NewLoader(logger *zerolog.Logger) *Loader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Loader{logger: logger}
}

// Load picks the format from the file extension: .jsonl and .ndjson are read
// as JSON lines, everything else as CSV.
func (l *Loader) Load(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var res Result

	switch strings.ToLower(filepath.Ext(path)) {
	case extJSONL, extNDJSON:
		res, err = ReadJSONL(ctx, f)
	default:
		res, err = ReadCSV(ctx, f)
	}

	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}

	l.logger.Info().
		Str(logKeyPath, path).
		Int(logKeyLoaded, res.Loaded).
		Int(logKeySkipped, res.Skipped).
		Msgf("loaded %d articles (skipped %d)", res.Loaded, res.Skipped)

	return res, nil
}

// ReadCSV reads a CSV stream with a header row.
func ReadCSV(ctx context.Context, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, errors.E(errors.KindDataFormat, opLoad, fmt.Errorf("read header: %w", err))
	}

	idx, err := columnIndex(header)
	if err != nil {
		return Result{}, err
	}

	var res Result

	for row := 0; ; row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Skipped++

				continue
			}

			return Result{}, fmt.Errorf("read csv row: %w", err)
		}

		res.add(field(record, idx[colTitle]), field(record, idx[colText]), field(record, idx[colLabel]))
	}

	return res, nil
}

type jsonRecord struct {
	Title string          `json:"title"`
	Text  string          `json:"text"`
	Label json.RawMessage `json:"label"`
}

// ReadJSONL reads one JSON object per line. The label may be a string or a
// number.
func ReadJSONL(ctx context.Context, r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerBufferMultiplier*maxScannerBufferSize), maxScannerBufferSize*maxScannerBufferSize)

	var res Result

	for row := 0; scanner.Scan(); row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec jsonRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			res.Skipped++

			continue
		}

		res.add(rec.Title, rec.Text, rawLabel(rec.Label))
	}

	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read jsonl: %w", err)
	}

	return res, nil
}

func (r *Result) add(title, text, label string) {
	l, err := domain.ParseLabel(label)
	if err != nil {
		r.Skipped++

		return
	}

	a, err := domain.NewLabeledArticle(title, text, l)
	if err != nil {
		r.Skipped++

		return
	}

	r.Articles = append(r.Articles, a)
	r.Loaded++
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, 3)

	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	for _, required := range []string{colTitle, colText, colLabel} {
		if _, ok := idx[required]; !ok {
			return nil, errors.Ef(errors.KindDataFormat, opLoad, "csv must have columns title, text, label; found %v", header)
		}
	}

	return idx, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}

	return record[i]
}

func rawLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
