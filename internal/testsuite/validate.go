package testsuite

import "strings"

const mixedReferencesMsg = "test suite has both null and non-null reference outputs; " +
	"reference outputs for test cases within a suite should be all null or all non-null"

// ValidateReferenceOutputs enforces that either every case has a reference
// output or none do.
func ValidateReferenceOutputs(cases []TestCaseRequest) error {
	if len(cases) == 0 {
		return nil
	}
	withRef := cases[0].ReferenceOutput != nil
	for _, c := range cases[1:] {
		if (c.ReferenceOutput != nil) != withRef {
			return InvalidArgumentf(mixedReferencesMsg)
		}
	}
	return nil
}

// Validate checks the method's type fields and the categories-iff-categorical rule.
func (m ScoringMethod) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return InvalidArgumentf("scoring method name is required")
	}
	switch m.Type {
	case BuiltIn, Custom:
	default:
		return InvalidArgumentf("unknown scoring method type %q", m.Type)
	}
	switch m.OutputType {
	case Continuous:
		if len(m.Categories) > 0 {
			return InvalidArgumentf("continuous scoring method %q must not declare categories", m.Name)
		}
	case Categorical:
		if len(m.Categories) == 0 {
			return InvalidArgumentf("categorical scoring method %q must declare categories", m.Name)
		}
		seen := make(map[string]bool, len(m.Categories))
		for _, c := range m.Categories {
			if c.Name == "" {
				return InvalidArgumentf("scoring method %q has a category without a name", m.Name)
			}
			if seen[c.Name] {
				return InvalidArgumentf("scoring method %q declares category %q twice", m.Name, c.Name)
			}
			seen[c.Name] = true
		}
	default:
		return InvalidArgumentf("unknown output type %q", m.OutputType)
	}
	return nil
}

// Validate checks a suite request before anything is written.
func (r *CreateSuiteRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return InvalidArgumentf("suite name is required")
	}
	if len(r.TestCases) == 0 {
		return InvalidArgumentf("suite %q must have at least one test case", r.Name)
	}
	if err := ValidateReferenceOutputs(r.TestCases); err != nil {
		return err
	}
	return r.ScoringMethod.Validate()
}

// Normalize copies a deprecated top-level score into the score result.
func (c *ScoredCase) Normalize() {
	if c.ScoreResult.Score == nil && c.Score != nil {
		v := *c.Score
		c.ScoreResult.Score = &v
	}
	if c.Score == nil && c.ScoreResult.Score != nil {
		v := *c.ScoreResult.Score
		c.Score = &v
	}
}

// Validate checks a run request: a name and at least one result per case.
func (r *CreateRunRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return InvalidArgumentf("run name is required")
	}
	for i, c := range r.TestCases {
		if c.ScoreResult.Score == nil && c.ScoreResult.Category == nil && c.Score == nil {
			return InvalidArgumentf("test case %d of run %q has neither a score nor a category", i, r.Name)
		}
	}
	return nil
}
