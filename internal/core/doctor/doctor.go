// Package doctor checks whether this machine can show inline images: the
// compositor binary, the terminal's pixel reporting and folio's data dir.
package doctor

import "context"

// Status is the outcome of one check item.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarn:
		return 1
	default:
		return 0
	}
}

// CheckItem is one line of a check. A warning means reading still works
// with images degraded to alt text; a failure means it does not.
type CheckItem struct {
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Fixable bool   `json:"fixable,omitempty"`
}

// Result groups the items of one check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Status returns the worst status among the items.
func (r Result) Status() Status {
	worst := StatusPass
	for _, item := range r.Items {
		if item.Status.rank() > worst.rank() {
			worst = item.Status
		}
	}
	return worst
}

// Check inspects one part of the environment.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll runs checks in order.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, check.Run(ctx))
	}
	return results
}

// Summary counts item statuses across results.
type Summary struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
	// Fixable counts warnings and failures that --autofix can repair.
	Fixable int `json:"fixable"`
}

// Healthy reports whether nothing failed.
func (s Summary) Healthy() bool { return s.Failed == 0 }

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				s.Passed++
			case StatusWarn:
				s.Warned++
			case StatusFail:
				s.Failed++
			}
			if item.Fixable && item.Status != StatusPass {
				s.Fixable++
			}
		}
	}
	return s
}
