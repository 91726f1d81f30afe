package cmd

import (
	"context"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const walkPageSize = 100

// resolveSuiteID accepts a suite id or name.
func resolveSuiteID(ctx context.Context, b *bench.Client, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	return b.SuiteIDByName(ctx, ref)
}

// resolveRunID accepts a run id or a run name within the suite.
func resolveRunID(ctx context.Context, b *bench.Client, suiteID uuid.UUID, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	for page := 1; ; page++ {
		runs, err := b.ListRunsForSuite(ctx, suiteID, "", page, walkPageSize)
		if err != nil {
			return uuid.Nil, err
		}
		for _, r := range runs.Items {
			if r.Name == ref {
				return r.ID, nil
			}
		}
		if page >= runs.TotalPages {
			return uuid.Nil, testsuite.NotFoundf("test run %q", ref)
		}
	}
}
