package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const QACorrectnessName = "qa_correctness"

// Categories assigned by QACorrectness.
const (
	CategoryCorrect   = "correct"
	CategoryIncorrect = "incorrect"
	CategoryUnclear   = "unclear"
)

// DefaultMaxAttempts bounds judge calls per output.
const DefaultMaxAttempts = 5

var errUnparsableDecision = errors.New("unparsable judge decision")

// QACorrectness asks an LLM judge whether each output answers its input
// correctly given the supplied context.
type QACorrectness struct {
	client      llm.Client
	model       string
	maxAttempts int
}

func newQACorrectness(config map[string]any, deps Deps) (Scorer, error) {
	model, err := stringConfig(config, "model")
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = deps.Model
	}
	return &QACorrectness{client: deps.LLM, model: model, maxAttempts: DefaultMaxAttempts}, nil
}

func (s *QACorrectness) Name() string                     { return QACorrectnessName }
func (s *QACorrectness) OutputType() testsuite.OutputType { return testsuite.Categorical }
func (s *QACorrectness) RequiresReference() bool          { return false }
func (s *QACorrectness) RequiresContext() bool            { return true }

func (s *QACorrectness) Categories() []testsuite.Category {
	return []testsuite.Category{
		{Name: CategoryCorrect, Description: strPtr("the answer is correct and supported by the context")},
		{Name: CategoryIncorrect, Description: strPtr("the answer is wrong or unsupported by the context")},
		{Name: CategoryUnclear, Description: strPtr("the judge could not decide")},
	}
}

func (s *QACorrectness) RunBatch(ctx context.Context, b Batch) ([]testsuite.ScoreResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%s scorer requires an LLM client", s.Name())
	}
	if b.Inputs == nil {
		return nil, testsuite.InvalidArgumentf("input text must be provided for the %s scorer", s.Name())
	}
	if err := Check(s, b); err != nil {
		return nil, err
	}

	out := make([]testsuite.ScoreResult, b.Len())
	for i := range b.Candidates {
		res, err := s.judge(ctx, b.Inputs[i], b.Contexts[i], b.Candidates[i])
		if err != nil {
			return nil, fmt.Errorf("failed to judge output %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

func (s *QACorrectness) judge(ctx context.Context, question, ctxText, answer string) (testsuite.ScoreResult, error) {
	req := llm.ChatRequest{
		Model:         s.model,
		SystemMessage: judgeSystemPrompt,
		Examples:      judgeFewShot(),
		UserMessage:   judgeQuestion(question, ctxText, answer),
		Temperature:   llm.Float64Ptr(0),
		MaxTokens:     8,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return testsuite.ScoreResult{}, err
		}
		resp, err := s.client.ChatCompletion(ctx, req)
		if err == nil {
			var res testsuite.ScoreResult
			res, err = ParseDecision(resp.Content)
			if err == nil {
				return res, nil
			}
		}
		lastErr = err
		slog.Debug("judge attempt failed", "attempt", attempt, "error", err)
	}
	return testsuite.ScoreResult{}, fmt.Errorf("giving up after %d attempts: %w", s.maxAttempts, lastErr)
}

// ParseDecision maps a judge reply to a score result: 1 is correct with
// score 1, 0 is incorrect with score 0, NA is unclear without a score.
func ParseDecision(text string) (testsuite.ScoreResult, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return testsuite.ScoreResult{}, fmt.Errorf("%w: empty reply", errUnparsableDecision)
	}
	token := strings.ToUpper(strings.Trim(fields[0], ".,;:!\"'`"))
	switch token {
	case "1", "1.0", "CORRECT":
		return testsuite.ScoreResult{Score: floatPtr(1), Category: &testsuite.Category{Name: CategoryCorrect}}, nil
	case "0", "0.0", "INCORRECT":
		return testsuite.ScoreResult{Score: floatPtr(0), Category: &testsuite.Category{Name: CategoryIncorrect}}, nil
	case "NA", "N/A", "-1", "UNCLEAR":
		return testsuite.ScoreResult{Category: &testsuite.Category{Name: CategoryUnclear}}, nil
	default:
		return testsuite.ScoreResult{}, fmt.Errorf("%w: %q", errUnparsableDecision, text)
	}
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
