// Package main scores logged predictions offline.
//
// Each JSONL line carries the true label and either the stored P(FAKE) or
// the predicted label:
//
//	{"id":"a1","label":"FAKE","prob_fake":0.83}
//	{"id":"a2","label":"REAL","predicted":"REAL"}
//
// prob_fake takes precedence and is re-decided with -threshold, so a new
// operating point can be tried without re-running the model.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/process/decision"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
)

const (
	maxScannerBufferSize    = 1024
	scannerBufferMultiplier = 64

	errFmt = "%v\n"
)

var (
	errPrecisionBelowThreshold = errors.New("precision below threshold")
	errF1BelowThreshold        = errors.New("f1 below threshold")
)

type evalRecord struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	ProbFake  *float64 `json:"prob_fake"`
	Predicted string   `json:"predicted"`
}

type evalStats struct {
	total     int
	skipped   int
	confusion evaluate.Confusion
}

type evalConfig struct {
	inputPath    string
	threshold    float64
	minPrecision float64
	minF1        float64
}

func main() {
	cfg := parseFlags()

	policy, err := decision.NewPolicy(cfg.threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}

	stats, err := processInputFile(cfg, policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}

	metrics := evaluate.FromConfusion(stats.confusion)
	printSummary(os.Stdout, stats, metrics, policy)

	if err := checkThresholds(metrics, cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}
}

func parseFlags() evalConfig {
	cfg := evalConfig{}

	flag.StringVar(&cfg.inputPath, "input", "predictions.jsonl", "Path to JSONL predictions")
	flag.Float64Var(&cfg.threshold, "threshold", decision.DefaultThreshold, "P(FAKE) threshold for records with prob_fake")
	flag.Float64Var(&cfg.minPrecision, "min-precision", -1, "Fail if precision is below this value (disabled if <0)")
	flag.Float64Var(&cfg.minF1, "min-f1", -1, "Fail if F1 is below this value (disabled if <0)")

	flag.Parse()

	return cfg
}

func processInputFile(cfg evalConfig, policy decision.Policy) (evalStats, error) {
	f, err := os.Open(cfg.inputPath)
	if err != nil {
		return evalStats{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return scanRecords(f, policy)
}

func scanRecords(r io.Reader, policy decision.Policy) (evalStats, error) {
	stats := evalStats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerBufferMultiplier*maxScannerBufferSize), maxScannerBufferSize*maxScannerBufferSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		processLine(line, policy, &stats)
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}

	return stats, nil
}

func processLine(line string, policy decision.Policy, stats *evalStats) {
	var rec evalRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		stats.skipped++

		return
	}

	actual, err := domain.ParseLabel(rec.Label)
	if err != nil {
		stats.skipped++

		return
	}

	predicted, ok := predictedLabel(rec, policy)
	if !ok {
		stats.skipped++

		return
	}

	stats.total++
	updateConfusion(&stats.confusion, actual, predicted)
}

func predictedLabel(rec evalRecord, policy decision.Policy) (domain.Label, bool) {
	if rec.ProbFake != nil {
		return policy.Decide(*rec.ProbFake).Label, true
	}

	l, err := domain.ParseLabel(rec.Predicted)
	if err != nil {
		return 0, false
	}

	return l, true
}

func updateConfusion(c *evaluate.Confusion, actual, predicted domain.Label) {
	actualPositive := actual == domain.LabelFake
	predictedPositive := predicted == domain.LabelFake

	switch {
	case predictedPositive && actualPositive:
		c.TP++
	case predictedPositive && !actualPositive:
		c.FP++
	case !predictedPositive && actualPositive:
		c.FN++
	default:
		c.TN++
	}
}

func checkThresholds(m evaluate.Metrics, cfg evalConfig) error {
	if cfg.minPrecision >= 0 && m.Precision < cfg.minPrecision {
		return fmt.Errorf("%w: %.3f < %.3f", errPrecisionBelowThreshold, m.Precision, cfg.minPrecision)
	}

	if cfg.minF1 >= 0 && m.F1 < cfg.minF1 {
		return fmt.Errorf("%w: %.3f < %.3f", errF1BelowThreshold, m.F1, cfg.minF1)
	}

	return nil
}

func printSummary(w io.Writer, stats evalStats, m evaluate.Metrics, policy decision.Policy) {
	c := stats.confusion

	fmt.Fprintf(w, "Evaluation Summary\n")
	fmt.Fprintf(w, "  Records: %d (skipped: %d)\n", stats.total, stats.skipped)
	fmt.Fprintf(w, "  Threshold: P(FAKE)>=%.2f\n", policy.Threshold())
	fmt.Fprintf(w, "  Confusion: TP=%d FP=%d FN=%d TN=%d\n", c.TP, c.FP, c.FN, c.TN)

	for _, f := range m.Fields() {
		fmt.Fprintf(w, "  %s: %.4f\n", f.Name, f.Value)
	}
}
