package chart

import "strings"

// ResolveLabels computes the shortest unique trailing label for each
// dot-delimited category path in the given set.
//
// Every label starts as the last path component. Whenever two categories
// collapse to the same label, both are extended leftward by one component
// and retried, until all labels are unique or the full path is in use (the
// full path is unique by construction). Each labeling context — pie slices,
// bar labels, stack labels — resolves over its own disjoint set and shares
// no state with any other context.
func ResolveLabels(categories []string) map[string]string {
	parts := make(map[string][]string, len(categories))
	width := make(map[string]int, len(categories))
	for _, c := range categories {
		if _, seen := parts[c]; seen {
			continue
		}
		parts[c] = strings.Split(c, ".")
		width[c] = 1
	}

	label := func(c string) string {
		p := parts[c]
		return strings.Join(p[len(p)-width[c]:], ".")
	}

	for {
		collisions := make(map[string][]string)
		for c := range parts {
			l := label(c)
			collisions[l] = append(collisions[l], c)
		}
		extended := false
		for _, group := range collisions {
			if len(group) < 2 {
				continue
			}
			for _, c := range group {
				if width[c] < len(parts[c]) {
					width[c]++
					extended = true
				}
			}
		}
		if !extended {
			break
		}
	}

	out := make(map[string]string, len(parts))
	for c := range parts {
		out[c] = label(c)
	}
	return out
}
