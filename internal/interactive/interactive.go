// Package interactive is the line-oriented console surface: one article per
// line in, one verdict out.
package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lueurxax/fakenews-detector/internal/process/pipeline"
)

const (
	Prompt = "> "

	banner = "Fake news detector. Paste an article and press Enter.\n" +
		"Submit an empty line, \"quit\" or \"exit\" to stop.\n"

	maxLineBytes = 1 << 20
)

type Predictor interface {
	PredictFromText(raw string) (pipeline.Prediction, error)
}

// Run reads lines from in until an empty line, quit, exit, EOF or ctx is
// done. Pipeline errors are printed and the loop continues; only read and
// write failures are returned.
func Run(ctx context.Context, in io.Reader, out io.Writer, predictor Predictor) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	if _, err := io.WriteString(out, banner); err != nil {
		return fmt.Errorf("write banner: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := io.WriteString(out, Prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if isExit(line) {
			return nil
		}

		if err := respond(out, predictor, line); err != nil {
			return err
		}
	}
}

func isExit(line string) bool {
	return line == "" || strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit")
}

func respond(out io.Writer, predictor Predictor, line string) error {
	p, err := predictor.PredictFromText(line)
	if err != nil {
		_, werr := fmt.Fprintf(out, "Error: %v\n", err)
		return wrapWrite(werr)
	}

	_, werr := fmt.Fprint(out, Format(p))

	return wrapWrite(werr)
}

// Format renders one verdict as printed by Run.
func Format(p pipeline.Prediction) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Result: This article is %s news.\n", p.Label)
	fmt.Fprintf(&sb, "Confidence: %.1f%%\n", p.Confidence*100)

	if p.Degraded {
		sb.WriteString("Note: the model gave no probability; confidence is a fixed estimate.\n")
	}

	return sb.String()
}

func wrapWrite(err error) error {
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
