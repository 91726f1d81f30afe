// Package bench is the query facade over the suite and run repository: the
// listing, paging, joining, and summarising operations every consumer uses.
package bench

import (
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/summary"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const (
	// DefaultPageSize is the page size used when a caller has no preference.
	DefaultPageSize = 5

	// fullPageSize is the page size used when walking every page internally.
	fullPageSize = 100
)

// Repository is the storage the facade reads and writes. *fsstore.Store
// implements it.
type Repository interface {
	CreateSuite(req *testsuite.CreateSuiteRequest) (*testsuite.TestSuite, error)
	GetSuiteByID(id uuid.UUID) (*testsuite.TestSuite, error)
	GetSuiteByName(name string) (*testsuite.TestSuite, error)
	SuiteExists(name string) bool
	ListSuites() ([]*testsuite.TestSuite, error)
	RecordRunCompletion(name string, runTime time.Time) error

	CreateRun(suiteName string, run *testsuite.TestRun) error
	GetRunByID(suiteName string, id uuid.UUID) (*testsuite.TestRun, error)
	ListRuns(suiteName string) ([]*testsuite.TestRun, error)

	NewID() uuid.UUID
}

// Client serves bench queries from a Repository.
type Client struct {
	repo    Repository
	metrics *metrics.Metrics
	numBins int
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every operation on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHistogramBins sets the number of histogram buckets in summaries.
func WithHistogramBins(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.numBins = n
		}
	}
}

// WithClock overrides the time source for run creation stamps.
func WithClock(fn func() time.Time) Option {
	return func(c *Client) {
		c.now = fn
	}
}

// New returns a Client over repo.
func New(repo Repository, opts ...Option) *Client {
	c := &Client{
		repo:    repo,
		numBins: summary.DefaultBins,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
