package selftest

import (
	"sort"
	"time"

	"github.com/hupe1980/routemesh/core"
)

// SlowThreshold marks results worth a performance warning.
const SlowThreshold = time.Second

// Result is the outcome of testing one route.
type Result struct {
	Path        string           `json:"path"`
	Kind        core.HandlerKind `json:"kind"`
	Success     bool             `json:"success"`
	Duration    time.Duration    `json:"duration"`
	Message     string           `json:"message,omitempty"`
	Data        any              `json:"data,omitempty"`
	ParamSource core.ParamSource `json:"paramSource"`
	// Timeout is the limit the route was tested under.
	Timeout time.Duration `json:"timeout"`
	// TimedOut is set when the limit expired before the call completed.
	TimedOut bool  `json:"timedOut"`
	Err      error `json:"-"`
}

// SourceStat counts results for one parameter source.
type SourceStat struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
}

// Rate returns the pass rate in percent.
func (s SourceStat) Rate() float64 { return rate(s.Passed, s.Total) }

// Summary aggregates a run.
type Summary struct {
	Total         int                             `json:"total"`
	Passed        int                             `json:"passed"`
	Failed        int                             `json:"failed"`
	SuccessRate   float64                         `json:"successRate"`
	TotalDuration time.Duration                   `json:"totalDuration"`
	AvgDuration   time.Duration                   `json:"avgDuration"`
	BySource      map[core.ParamSource]SourceStat `json:"bySource"`
	Failures      []Result                        `json:"failures,omitempty"`
	// Slow lists results over SlowThreshold, slowest first.
	Slow []Result `json:"slow,omitempty"`
}

// Summarize aggregates results.
func Summarize(results []Result) Summary {
	s := Summary{BySource: make(map[core.ParamSource]SourceStat)}

	for _, r := range results {
		s.Total++
		s.TotalDuration += r.Duration

		stat := s.BySource[r.ParamSource]
		stat.Total++
		if r.Success {
			s.Passed++
			stat.Passed++
		} else {
			s.Failures = append(s.Failures, r)
		}
		s.BySource[r.ParamSource] = stat

		if r.Duration > SlowThreshold {
			s.Slow = append(s.Slow, r)
		}
	}

	s.Failed = s.Total - s.Passed
	s.SuccessRate = rate(s.Passed, s.Total)
	if s.Total > 0 {
		s.AvgDuration = s.TotalDuration / time.Duration(s.Total)
	}

	sort.SliceStable(s.Slow, func(i, j int) bool { return s.Slow[i].Duration > s.Slow[j].Duration })

	return s
}

func rate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}
