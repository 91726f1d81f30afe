package fsstore

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// SuiteRecord is a suite.json as found on disk: either a suite with an id, or
// a legacy record written before ids were stored. Exactly one field is set.
type SuiteRecord struct {
	Identified *testsuite.TestSuite
	Legacy     *LegacySuite
}

// LegacySuite is a suite record without an id. Its cases may lack ids too.
type LegacySuite struct {
	Name          string                  `json:"name"`
	Description   *string                 `json:"description"`
	ScoringMethod testsuite.ScoringMethod `json:"scoring_method"`
	TestCases     []LegacyCase            `json:"test_cases"`
	CreatedAt     testsuite.Timestamp     `json:"created_at"`
	UpdatedAt     testsuite.Timestamp     `json:"updated_at"`
	LastRunTime   *testsuite.Timestamp    `json:"last_run_time"`
	NumRuns       int                     `json:"num_runs"`
	CreatedBy     string                  `json:"created_by"`
	BenchVersion  string                  `json:"bench_version"`
}

// LegacyCase is a test case whose id may be missing or empty.
type LegacyCase struct {
	ID              string  `json:"id"`
	Input           string  `json:"input"`
	ReferenceOutput *string `json:"reference_output"`
}

// DecodeSuiteRecord classifies raw suite.json content.
func DecodeSuiteRecord(data []byte) (SuiteRecord, error) {
	var head struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return SuiteRecord{}, testsuite.Internalf("suite record is corrupt: %v", err)
	}

	if head.ID == nil || strings.TrimSpace(*head.ID) == "" {
		var legacy LegacySuite
		if err := json.Unmarshal(data, &legacy); err != nil {
			return SuiteRecord{}, testsuite.Internalf("legacy suite record is corrupt: %v", err)
		}
		return SuiteRecord{Legacy: &legacy}, nil
	}

	var suite testsuite.TestSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return SuiteRecord{}, testsuite.Internalf("suite record is corrupt: %v", err)
	}
	return SuiteRecord{Identified: &suite}, nil
}

// Migrate turns a legacy record into an identified suite. It allocates the
// suite id and any missing case ids from newID and touches nothing else.
func Migrate(legacy LegacySuite, newID func() uuid.UUID) testsuite.TestSuite {
	cases := make([]testsuite.TestCase, 0, len(legacy.TestCases))
	for _, c := range legacy.TestCases {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			id = newID()
		}
		cases = append(cases, testsuite.TestCase{ID: id, Input: c.Input, ReferenceOutput: c.ReferenceOutput})
	}

	updated := legacy.UpdatedAt
	if updated.IsZero() {
		updated = legacy.CreatedAt
	}
	return testsuite.TestSuite{
		ID:            newID(),
		Name:          legacy.Name,
		Description:   legacy.Description,
		ScoringMethod: legacy.ScoringMethod,
		TestCases:     cases,
		CreatedAt:     legacy.CreatedAt,
		UpdatedAt:     updated,
		LastRunTime:   legacy.LastRunTime,
		NumRuns:       legacy.NumRuns,
		CreatedBy:     legacy.CreatedBy,
		BenchVersion:  legacy.BenchVersion,
	}
}
