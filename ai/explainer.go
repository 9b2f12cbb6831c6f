// Package ai turns a failed execution into remediation advice grounded on a
// local example corpus and produced by an external generative collaborator.
package ai

import (
	"code-lab/contract"
	"code-lab/domain"
	"context"
	"log/slog"
	"time"
)

var _ contract.Explainer = (*Explainer)(nil)

const failurePrefix = "AI analysis failed. Error: "

type Explainer struct {
	log       *slog.Logger
	corpus    *Corpus
	generator Generator
	timeout   time.Duration
}

func NewExplainer(log *slog.Logger, corpus *Corpus, generator Generator, timeout time.Duration) *Explainer {
	return &Explainer{log: log, corpus: corpus, generator: generator, timeout: timeout}
}

// Explain makes a single attempt. A collaborator fault comes back as the
// failure text, never as an empty string.
func (e *Explainer) Explain(ctx context.Context, code, errorText string, language domain.Language) string {
	examples := e.corpus.Lookup(language, MaxExamples)
	prompt := BuildPrompt(language, code, errorText, examples)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn("Diagnostic collaborator failed", "language", language, "error", err)
		return FailureMessage(err)
	}
	e.log.Debug("Diagnostic generated", "language", language,
		"examples", len(examples), "latency", time.Since(start))
	return Normalize(raw, len(examples) > 0)
}

func FailureMessage(err error) string {
	return failurePrefix + err.Error()
}
