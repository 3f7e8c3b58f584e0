package tally

import "slices"

// Merge combines the previously published tally with a freshly tabulated
// one. For every label the result keeps the higher of the two counts, so
// manual corrections that raised a count survive a smaller fresh tally and
// fresh growth wins over stale numbers. Labels that only exist in the
// published tally are kept untouched; labels never disappear here.
//
// The second return value lists labels seen for the first time, sorted,
// so callers can report them deterministically. Neither input is mutated.
func Merge(existing, fresh CountMap) (CountMap, []string) {
	merged := existing.Clone()
	var added []string
	for label, count := range fresh {
		prev, ok := merged[label]
		if !ok {
			added = append(added, label)
		}
		if count > prev || !ok {
			merged[label] = count
		}
	}
	slices.Sort(added)
	return merged, added
}
