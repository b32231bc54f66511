package cart

import "sort"

// Snapshot maps detected class names to counts for one detection cycle.
type Snapshot map[string]int

// Normalize folds class names, sums duplicates that fold together and drops
// non-positive counts.
func (s Snapshot) Normalize() Snapshot {
	out := make(Snapshot, len(s))
	for class, n := range s {
		if n <= 0 {
			continue
		}
		out[FoldName(class)] += n
	}
	for k, n := range out {
		if n <= 0 || k == "" {
			delete(out, k)
		}
	}
	return out
}

// Classes returns the keys in sorted order.
func (s Snapshot) Classes() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count sums all counts.
func (s Snapshot) Count() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// FromClasses builds a snapshot by counting each occurrence of a class label.
func FromClasses(classes []string) Snapshot {
	s := Snapshot{}
	for _, c := range classes {
		s[c]++
	}
	return s
}
