// Package summary derives per-run statistics: the mean score and either a
// fixed-bucket histogram or per-category counts.
package summary

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// DefaultBins is the histogram resolution used for continuous scoring methods.
const DefaultBins = 20

// HistogramBucket counts scores in [Low, High). The last bucket also holds High.
type HistogramBucket struct {
	Count int     `json:"count"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// CategoryCount counts results labelled with one category.
type CategoryCount struct {
	Count    int                `json:"count"`
	Category testsuite.Category `json:"category"`
}

// Item is the summary of one run. Exactly one of Histogram and Categories is
// set, depending on the scoring method's output type. On the wire both are
// carried in the "histogram" field.
type Item struct {
	ID         uuid.UUID
	Name       string
	AvgScore   float64
	Histogram  []HistogramBucket
	Categories []CategoryCount
}

type itemJSON struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	AvgScore  float64         `json:"avg_score"`
	Histogram json.RawMessage `json:"histogram"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	var entries any = it.Histogram
	switch {
	case it.Categories != nil:
		entries = it.Categories
	case it.Histogram == nil:
		entries = []HistogramBucket{}
	}
	hist, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemJSON{ID: it.ID, Name: it.Name, AvgScore: it.AvgScore, Histogram: hist})
}

// UnmarshalJSON tells category counts from buckets by their "category" key.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = Item{ID: raw.ID, Name: raw.Name, AvgScore: raw.AvgScore}
	if len(raw.Histogram) == 0 || string(raw.Histogram) == "null" {
		return nil
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw.Histogram, &entries); err != nil {
		return err
	}
	if len(entries) > 0 {
		if _, ok := entries[0]["category"]; ok {
			return json.Unmarshal(raw.Histogram, &it.Categories)
		}
	}
	return json.Unmarshal(raw.Histogram, &it.Histogram)
}

// Summarize computes the summary of run under method. Continuous runs must
// have a score on every case; categorical runs must only use declared
// categories.
func Summarize(run *testsuite.TestRun, method testsuite.ScoringMethod, numBins int) (Item, error) {
	if numBins < 1 {
		numBins = DefaultBins
	}
	item := Item{ID: run.ID, Name: run.Name}

	if method.IsCategorical() {
		counts, err := countCategories(run, method.Categories)
		if err != nil {
			return Item{}, err
		}
		item.Categories = counts
		item.AvgScore = run.AverageScore()
		return item, nil
	}

	scores := make([]float64, 0, len(run.TestCases))
	for i, c := range run.TestCases {
		v, ok := c.Value()
		if !ok {
			return Item{}, testsuite.Internalf("run %q case %d has no score under continuous method %q", run.Name, i, method.Name)
		}
		scores = append(scores, v)
	}
	item.AvgScore = mean(scores)
	item.Histogram = Histogram(scores, numBins)
	return item, nil
}

// Histogram buckets scores into numBins equal-width buckets spanning
// [0, max(1, max(scores))]. Scores below zero land in the first bucket so
// the counts always sum to len(scores).
func Histogram(scores []float64, numBins int) []HistogramBucket {
	upper := 1.0
	for _, s := range scores {
		if s > upper {
			upper = s
		}
	}

	width := upper / float64(numBins)
	buckets := make([]HistogramBucket, numBins)
	for i := range buckets {
		buckets[i].Low = float64(i) * width
		buckets[i].High = float64(i+1) * width
	}
	buckets[numBins-1].High = upper

	for _, s := range scores {
		idx := int(s / width)
		if s < 0 {
			idx = 0
		}
		if idx >= numBins {
			idx = numBins - 1
		}
		// Guard against rounding putting s just outside its bucket.
		for idx > 0 && s < buckets[idx].Low {
			idx--
		}
		for idx < numBins-1 && s >= buckets[idx].High {
			idx++
		}
		buckets[idx].Count++
	}
	return buckets
}

func countCategories(run *testsuite.TestRun, declared []testsuite.Category) ([]CategoryCount, error) {
	counts := make([]CategoryCount, len(declared))
	pos := make(map[string]int, len(declared))
	for i, c := range declared {
		counts[i].Category = c
		pos[c.Name] = i
	}
	for i, c := range run.TestCases {
		if c.ScoreResult.Category == nil {
			return nil, testsuite.Internalf("run %q case %d has no category", run.Name, i)
		}
		idx, ok := pos[c.ScoreResult.Category.Name]
		if !ok {
			return nil, testsuite.Internalf("run %q case %d has undeclared category %q", run.Name, i, c.ScoreResult.Category.Name)
		}
		counts[idx].Count++
	}
	return counts, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
