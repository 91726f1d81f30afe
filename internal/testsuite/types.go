package testsuite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutputType describes the shape of the results a scoring method produces.
type OutputType string

const (
	Continuous  OutputType = "continuous"
	Categorical OutputType = "categorical"
)

// MethodType distinguishes scoring methods shipped with the tool from user-supplied ones.
type MethodType string

const (
	BuiltIn MethodType = "built_in"
	Custom  MethodType = "custom"
)

// Category is one label a categorical scoring method may assign.
type Category struct {
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ScoringMethod is the metadata stored on a suite describing how its runs are scored.
type ScoringMethod struct {
	Name       string         `json:"name" yaml:"name"`
	Type       MethodType     `json:"type" yaml:"type"`
	OutputType OutputType     `json:"output_type" yaml:"output_type"`
	Categories []Category     `json:"categories,omitempty" yaml:"categories,omitempty"`
	Config     map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// IsCategorical reports whether runs scored by m carry categories rather than numbers.
func (m ScoringMethod) IsCategorical() bool {
	return m.OutputType == Categorical
}

// UnmarshalJSON accepts the current object form as well as the bare method
// name older records stored. Missing type fields default to a built-in
// continuous method.
func (m *ScoringMethod) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = ScoringMethod{Name: name, Type: BuiltIn, OutputType: Continuous}
		return nil
	}

	type plain ScoringMethod
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Type == "" {
		p.Type = BuiltIn
	}
	if p.OutputType == "" {
		p.OutputType = Continuous
	}
	*m = ScoringMethod(p)
	return nil
}

// TestCase is one input with an optional golden output.
type TestCase struct {
	ID              uuid.UUID `json:"id"`
	Input           string    `json:"input"`
	ReferenceOutput *string   `json:"reference_output"`
}

// TestSuite is a named, fixed benchmark of test cases.
type TestSuite struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   *string       `json:"description"`
	ScoringMethod ScoringMethod `json:"scoring_method"`
	TestCases     []TestCase    `json:"test_cases"`
	CreatedAt     Timestamp     `json:"created_at"`
	UpdatedAt     Timestamp     `json:"updated_at"`
	LastRunTime   *Timestamp    `json:"last_run_time"`
	NumRuns       int           `json:"num_runs"`
	CreatedBy     string        `json:"created_by,omitempty"`
	BenchVersion  string        `json:"bench_version,omitempty"`
}

// HasReferenceOutputs reports whether the suite's cases carry golden outputs.
// The all-or-none invariant means checking the first case is enough.
func (s *TestSuite) HasReferenceOutputs() bool {
	return len(s.TestCases) > 0 && s.TestCases[0].ReferenceOutput != nil
}

// LastActivity returns the last run time, falling back to the creation time
// for suites that have never been run.
func (s *TestSuite) LastActivity() time.Time {
	if s.LastRunTime != nil {
		return s.LastRunTime.Time
	}
	return s.CreatedAt.Time
}

// ScoreResult is what a scoring method produced for one output.
type ScoreResult struct {
	Score    *float64  `json:"score"`
	Category *Category `json:"category"`
}

// ScoredCase is one model output against a suite case, with its score.
type ScoredCase struct {
	ID     uuid.UUID `json:"id"`
	Output string    `json:"output"`
	// Score mirrors ScoreResult.Score for readers of older records.
	Score       *float64    `json:"score"`
	ScoreResult ScoreResult `json:"score_result"`
}

// Value returns the numeric score of the case, preferring the score result.
func (c ScoredCase) Value() (float64, bool) {
	if c.ScoreResult.Score != nil {
		return *c.ScoreResult.Score, true
	}
	if c.Score != nil {
		return *c.Score, true
	}
	return 0, false
}

// TestRun is one scored pass of model outputs against a suite.
type TestRun struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	TestSuiteID     uuid.UUID    `json:"test_suite_id"`
	TestCases       []ScoredCase `json:"test_cases"`
	Description     string       `json:"description,omitempty"`
	ModelName       string       `json:"model_name,omitempty"`
	ModelVersion    string       `json:"model_version,omitempty"`
	FoundationModel string       `json:"foundation_model,omitempty"`
	PromptTemplate  string       `json:"prompt_template,omitempty"`
	CreatedBy       string       `json:"created_by,omitempty"`
	BenchVersion    string       `json:"bench_version,omitempty"`
	CreatedAt       Timestamp    `json:"created_at"`
	UpdatedAt       Timestamp    `json:"updated_at"`
}

// AverageScore is the mean of the run's numeric scores, ignoring cases without one.
func (r *TestRun) AverageScore() float64 {
	var sum float64
	var n int
	for _, c := range r.TestCases {
		if v, ok := c.Value(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TestCaseRequest is a case supplied when creating a suite.
type TestCaseRequest struct {
	Input           string  `json:"input"`
	ReferenceOutput *string `json:"reference_output"`
}

// CreateSuiteRequest holds everything needed to create a new suite.
type CreateSuiteRequest struct {
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	ScoringMethod ScoringMethod     `json:"scoring_method"`
	TestCases     []TestCaseRequest `json:"test_cases"`
	CreatedBy     string            `json:"created_by,omitempty"`
	BenchVersion  string            `json:"bench_version,omitempty"`
	CreatedAt     time.Time         `json:"created_at,omitzero"`
}

// CreateRunRequest holds the scored outputs and metadata of a new run.
type CreateRunRequest struct {
	Name            string       `json:"name"`
	TestCases       []ScoredCase `json:"test_cases"`
	Description     string       `json:"description,omitempty"`
	ModelName       string       `json:"model_name,omitempty"`
	ModelVersion    string       `json:"model_version,omitempty"`
	FoundationModel string       `json:"foundation_model,omitempty"`
	PromptTemplate  string       `json:"prompt_template,omitempty"`
	CreatedBy       string       `json:"created_by,omitempty"`
	BenchVersion    string       `json:"bench_version,omitempty"`
	CreatedAt       time.Time    `json:"created_at,omitzero"`
}

// legacyLayout is the zone-less timestamp format written by older tooling.
const legacyLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a UTC instant that reads both RFC 3339 and the legacy
// zone-less layout.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalises t to UTC without a monotonic reading.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Round(0)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// ParseTimestamp parses s as RFC 3339, then as the legacy layout (read as UTC).
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTimestamp(t), nil
	}
	t, err := time.Parse(legacyLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return NewTimestamp(t), nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
