package harness

import (
	"fmt"
	"io"
	"time"
)

// Result is the outcome of one scenario.
type Result struct {
	Name     string
	Passed   bool
	Err      error
	Duration time.Duration
}

// Report collects results in run order.
type Report struct {
	Results []Result
}

func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Passed reports whether every scenario passed. An empty report passes.
func (r *Report) Passed() bool {
	return len(r.Failed()) == 0
}

func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Write prints one line per scenario and a summary.
func (r *Report) Write(w io.Writer) error {
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%s  %-28s %s\n", status, res.Name, res.Duration.Round(time.Millisecond)); err != nil {
			return err
		}
		if res.Err != nil {
			if _, err := fmt.Fprintf(w, "      %v\n", res.Err); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", len(r.Results)-len(r.Failed()), len(r.Failed()))
	return err
}
