package loadtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

type Aggregator struct {
	elapsed []time.Duration
}

// NewAggregator collects latencies of successful requests.
func NewAggregator(requests []*Request) *Aggregator {
	var elapsed []time.Duration
	for _, r := range requests {
		if r.Elapsed != nil && r.Error == "" {
			elapsed = append(elapsed, *r.Elapsed)
		}
	}

	sort.Slice(elapsed, func(i, j int) bool {
		return elapsed[i] < elapsed[j]
	})

	return &Aggregator{elapsed: elapsed}
}

// Percentile uses the nearest-rank method.
func (a *Aggregator) Percentile(percentile int) (time.Duration, error) {
	if percentile <= 0 || percentile > 100 {
		return 0, fmt.Errorf("percentile %d is out of (0, 100]", percentile)
	}
	if len(a.elapsed) == 0 {
		return 0, fmt.Errorf("no successful requests")
	}

	rank := (percentile*len(a.elapsed) + 99) / 100

	return a.elapsed[rank-1], nil
}

func (a *Aggregator) PrintPercentiles(w io.Writer, percentiles []int) {
	fmt.Fprintf(w, "Successful requests: %d\n", len(a.elapsed))

	for _, perc := range percentiles {
		value, err := a.Percentile(perc)
		if err != nil {
			fmt.Fprintf(w, "Failed to calculate percentile %d: %s\n", perc, err)
			continue
		}

		fmt.Fprintf(w, "Percentile %d: %s\n", perc, value)
	}
}
