package ai

import (
	"code-lab/domain"
	"code-lab/errors"
	"code-lab/mocks"
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func pythonCorpus() *Corpus {
	return NewCorpus(
		domain.Example{Language: domain.Python, ErrorContext: "ZeroDivisionError", Fix: "if d: print(1/d)"},
		domain.Example{Language: domain.Python, ErrorContext: "NameError", Fix: "x = 1"},
		domain.Example{Language: domain.Python, ErrorContext: "TypeError", Fix: "str(1)"},
		domain.Example{Language: domain.Python, ErrorContext: "KeyError", Fix: "d.get(k)"},
	)
}

func TestExplainer_GroundedExplanation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	explainer := NewExplainer(logs.GetLoggerFromLevel(slog.LevelDebug), pythonCorpus(), gen, time.Second)

	// Given a generator that greets and numbers its steps
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			req.Contains(prompt, "Example 3:")
			req.NotContains(prompt, "Example 4:")
			req.Contains(prompt, "print(1/0)")
			return "Hi! 1. You divide by zero.\n```python\nprint(0)\n```", nil
		}).Times(1)

	// When the failure is explained
	got := explainer.Explain(context.Background(), "print(1/0)", "ZeroDivisionError: division by zero", domain.Python)

	// Then the response opens with the marker and carries one clean block
	req.True(strings.HasPrefix(got, GroundingMarker))
	req.Contains(got, "- You divide by zero.")
	req.NotContains(got, "Hi!")
	req.Equal(2, strings.Count(got, "```"))
}

func TestExplainer_NoExamples_NoMarker(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	explainer := NewExplainer(logs.GetLoggerFromLevel(slog.LevelDebug), pythonCorpus(), gen, time.Second)

	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(GroundingMarker+" Missing semicolon.", nil)

	got := explainer.Explain(context.Background(), "int main() { return 0 }", "error: expected ';'", domain.Cpp)

	req.Equal("Missing semicolon.", got)
}

func TestExplainer_CollaboratorFailure_SingleAttempt(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	explainer := NewExplainer(logs.GetLoggerFromLevel(slog.LevelDebug), pythonCorpus(), gen, time.Second)

	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", stderrors.New("quota exceeded")).Times(1)

	got := explainer.Explain(context.Background(), "print(1/0)", "ZeroDivisionError", domain.Python)

	req.Equal("AI analysis failed. Error: quota exceeded", got)
}

func TestExplainer_Timeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	explainer := NewExplainer(logs.GetLoggerFromLevel(slog.LevelDebug), pythonCorpus(), gen, 50*time.Millisecond)

	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	start := time.Now()
	got := explainer.Explain(context.Background(), "print(1/0)", "ZeroDivisionError", domain.Python)

	req.Less(time.Since(start), time.Second)
	req.True(strings.HasPrefix(got, failurePrefix))
	req.Contains(got, context.DeadlineExceeded.Error())
}

func TestExplainer_Unconfigured(t *testing.T) {
	explainer := NewExplainer(logs.GetLoggerFromLevel(slog.LevelDebug), pythonCorpus(),
		Unavailable{Reason: "GEMINI_API_KEY is not set"}, time.Second)

	got := explainer.Explain(context.Background(), "x", "boom", domain.Python)

	require.Equal(t, FailureMessage(errors.ErrCollaboratorUnavailable)+": GEMINI_API_KEY is not set", got)
}
