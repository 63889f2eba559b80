// Package pipeline composes the text recognizer and the two extractors
// into one document-to-result pipeline with a defined fallback order.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
	"github.com/aishwarya1-1/AutomateAccounts/internal/heuristic"
)

// state names the orchestrator's explicit state machine.
type state int

const (
	stateRecognizing state = iota
	stateAttemptingAI
	stateHeuristic
	stateDone
	stateFailed
)

// Processor runs Recognize → AI attempt → heuristic fallback. The AI
// result wins whenever it reports success, even if its fields are
// sparser than what the heuristic would find: first-success-wins, no
// merging, no quality comparison.
type Processor struct {
	logger      *slog.Logger
	recognizer  extract.TextRecognizer
	ai          extract.TextExtractor
	heuristicFn func(string) extract.Result
}

func NewProcessor(logger *slog.Logger, recognizer extract.TextRecognizer, ai extract.TextExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:      logger,
		recognizer:  recognizer,
		ai:          ai,
		heuristicFn: heuristic.Extract,
	}
}

// Process runs the pipeline for one document. If recognition fails the
// run short-circuits into a failed Result: there is no fallback text
// source. An AI failure is recovered locally and never surfaced.
func (p *Processor) Process(ctx context.Context, path string) extract.Result {
	var (
		st     = stateRecognizing
		text   string
		result extract.Result
	)

	for {
		switch st {
		case stateRecognizing:
			t, err := p.recognizer.Recognize(ctx, path)
			if err != nil {
				p.logger.Error("pipeline.recognize.failed", "path", path, "error", err)
				result = extract.Failure(err.Error())
				st = stateFailed
				continue
			}
			text = t
			st = stateAttemptingAI

		case stateAttemptingAI:
			res := p.ai.ExtractFromText(ctx, text)
			if res.Success {
				p.logger.Info("pipeline.extract.ai", "path", path, "merchant", res.MerchantName)
				result = res
				st = stateDone
				continue
			}
			p.logger.Warn("pipeline.extract.ai_unavailable", "path", path, "reason", res.Error)
			st = stateHeuristic

		case stateHeuristic:
			// Never fails; worst case is an all-empty field set.
			result = p.heuristicFn(text)
			p.logger.Info("pipeline.extract.heuristic", "path", path, "merchant", result.MerchantName)
			st = stateDone

		case stateDone, stateFailed:
			return result
		}
	}
}
