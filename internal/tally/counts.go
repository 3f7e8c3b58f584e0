// Package tally holds the signup tally domain: counts of signups per
// category label and the merge rules that keep published counts from
// going backwards between runs.
package tally

import (
	"slices"
	"strings"
)

// CountMap maps a category label to its signup count.
// Labels are stored verbatim; counts are never negative.
type CountMap map[string]int

// Clone returns an independent copy of m. The copy is never nil.
func (m CountMap) Clone() CountMap {
	out := make(CountMap, len(m))
	for label, count := range m {
		out[label] = count
	}
	return out
}

// Total returns the sum of all counts.
func (m CountMap) Total() int {
	total := 0
	for _, count := range m {
		total += count
	}
	return total
}

// Active returns the number of labels with at least one signup.
func (m CountMap) Active() int {
	active := 0
	for _, count := range m {
		if count > 0 {
			active++
		}
	}
	return active
}

// Labels returns all labels ordered by count descending, ties by label
// ascending. This is the order the published artifact uses, so it must
// stay deterministic across runs.
func (m CountMap) Labels() []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if m[a] != m[b] {
			return m[b] - m[a]
		}
		return strings.Compare(a, b)
	})
	return labels
}

// Stats summarizes a tally for run reports.
type Stats struct {
	Total  int
	Active int
	Mean   float64
}

// Stats returns the total signups, the number of active labels and the
// mean signups per active label (0 when nothing is active).
func (m CountMap) Stats() Stats {
	s := Stats{Total: m.Total(), Active: m.Active()}
	if s.Active > 0 {
		s.Mean = float64(s.Total) / float64(s.Active)
	}
	return s
}
