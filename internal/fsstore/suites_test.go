package fsstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const legacySuiteJSON = `{
  "name": "old",
  "description": null,
  "scoring_method": "exact_match",
  "test_cases": [
    {"input": "Q1", "reference_output": "A1"},
    {"id": "", "input": "Q2", "reference_output": "A2"}
  ],
  "created_at": "2023-06-22T21:56:03.346141",
  "num_runs": 2,
  "last_run_time": "2023-06-23T08:00:00.000001"
}`

func writeLegacySuite(t *testing.T, s *Store, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(s.suiteDir(name), 0o755))
	require.NoError(t, os.WriteFile(s.suitePath(name), []byte(legacySuiteJSON), 0o644))
}

func TestCreateSuiteRoundTrip(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateSuite(demoRequest("demo"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.Len(t, created.TestCases, 2)
	assert.NotEqual(t, created.TestCases[0].ID, created.TestCases[1].ID)
	assert.True(t, created.CreatedAt.Equal(fixedNow))
	assert.Equal(t, 0, created.NumRuns)
	assert.Nil(t, created.LastRunTime)

	byName, err := s.GetSuiteByName("demo")
	require.NoError(t, err)
	assert.Equal(t, created, byName)

	byID, err := s.GetSuiteByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	_, err = os.Stat(filepath.Join(s.suiteDir("demo"), runIndexFile))
	assert.NoError(t, err, "run index must be initialised")
}

func TestCreateSuiteDuplicateName(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateSuite(demoRequest("demo"))
	require.NoError(t, err)

	other := demoRequest("demo")
	other.Description = nil
	other.TestCases = []testsuite.TestCaseRequest{{Input: "different"}}
	_, err = s.CreateSuite(other)
	assert.ErrorIs(t, err, testsuite.ErrAlreadyExists)
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)

	names, err := s.ListSuiteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, names)
}

func TestCreateSuiteInvalid(t *testing.T) {
	s := newTestStore(t)

	mixed := demoRequest("mixed")
	mixed.TestCases[1].ReferenceOutput = nil
	_, err := s.CreateSuite(mixed)
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)

	badName := demoRequest("../escape")
	_, err = s.CreateSuite(badName)
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)

	names, err := s.ListSuiteNames()
	require.NoError(t, err)
	assert.Empty(t, names, "invalid requests must not create directories")
}

func TestGetSuiteNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSuiteByName("nope")
	assert.ErrorIs(t, err, testsuite.ErrNotFound)
	_, err = s.GetSuiteByID(uuid.New())
	assert.ErrorIs(t, err, testsuite.ErrNotFound)
}

func TestGetSuiteByIDIndexMismatch(t *testing.T) {
	s := newTestStore(t)
	id := uuid.New()
	require.NoError(t, s.suiteIndex().Put(id, "ghost"))

	_, err := s.GetSuiteByID(id)
	assert.ErrorIs(t, err, testsuite.ErrInternal)
}

func TestLegacyMigrationIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	writeLegacySuite(t, s, "old")

	first, err := s.GetSuiteByName("old")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	require.Len(t, first.TestCases, 2)
	assert.NotEqual(t, uuid.Nil, first.TestCases[0].ID)
	assert.NotEqual(t, uuid.Nil, first.TestCases[1].ID)
	assert.Equal(t, 2, first.NumRuns)
	assert.Equal(t, "exact_match", first.ScoringMethod.Name)
	assert.True(t, first.CreatedAt.Equal(time.Date(2023, 6, 22, 21, 56, 3, 346141000, time.UTC)))

	second, err := s.GetSuiteByName("old")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TestCases, second.TestCases)

	entries, err := s.suiteIndex().Entries()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{first.ID.String(): "old"}, entries)

	_, err = os.Stat(filepath.Join(s.suiteDir("old"), runIndexFile))
	assert.NoError(t, err)

	byID, err := s.GetSuiteByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", byID.Name)
}

func TestGetSuiteByNameBackfillsIndex(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateSuite(demoRequest("demo"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), suiteIndexFile), []byte(`{}`), 0o644))
	require.NoError(t, os.Remove(filepath.Join(s.suiteDir("demo"), runIndexFile)))

	got, err := s.GetSuiteByName("demo")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	name, err := s.suiteIndex().Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", name)
	_, err = os.Stat(filepath.Join(s.suiteDir("demo"), runIndexFile))
	assert.NoError(t, err)
}

func TestDecodeSuiteRecord(t *testing.T) {
	rec, err := DecodeSuiteRecord([]byte(legacySuiteJSON))
	require.NoError(t, err)
	assert.Nil(t, rec.Identified)
	require.NotNil(t, rec.Legacy)

	rec, err = DecodeSuiteRecord([]byte(`{"id": "6f1c1e0e-4a47-4b8a-9f6c-1b7a3c0d9e11", "name": "x", "scoring_method": "exact_match", "test_cases": []}`))
	require.NoError(t, err)
	require.NotNil(t, rec.Identified)
	assert.Nil(t, rec.Legacy)

	_, err = DecodeSuiteRecord([]byte(`[`))
	assert.ErrorIs(t, err, testsuite.ErrInternal)
}

func TestMigrateIsPure(t *testing.T) {
	var legacy LegacySuite
	require.NoError(t, json.Unmarshal([]byte(legacySuiteJSON), &legacy))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	next := 0
	gen := func() uuid.UUID {
		id := ids[next]
		next++
		return id
	}

	got := Migrate(legacy, gen)
	assert.Equal(t, ids[0], got.TestCases[0].ID)
	assert.Equal(t, ids[1], got.TestCases[1].ID)
	assert.Equal(t, ids[2], got.ID)
	assert.True(t, got.UpdatedAt.Equal(got.CreatedAt.Time))
	assert.Equal(t, "old", got.Name)
}

func TestRecordRunCompletion(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateSuite(demoRequest("demo"))
	require.NoError(t, err)

	runAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.RecordRunCompletion("demo", runAt))
	require.NoError(t, s.RecordRunCompletion("demo", runAt.Add(time.Hour)))

	got, err := s.GetSuiteByName("demo")
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumRuns)
	require.NotNil(t, got.LastRunTime)
	assert.True(t, got.LastRunTime.Equal(runAt.Add(time.Hour)))

	assert.ErrorIs(t, s.RecordRunCompletion("nope", runAt), testsuite.ErrNotFound)
}

func TestListSuitesSkipsStrayDirs(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateSuite(demoRequest("b"))
	require.NoError(t, err)
	_, err = s.CreateSuite(demoRequest("a"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "not-a-suite"), 0o755))
	writeLegacySuite(t, s, "old")

	names, err := s.ListSuiteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "old"}, names)

	suites, err := s.ListSuites()
	require.NoError(t, err)
	require.Len(t, suites, 3)
	for _, suite := range suites {
		assert.NotEqual(t, uuid.Nil, suite.ID)
	}
}
