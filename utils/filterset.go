package utils

import "sort"

// FilterSet is an immutable set of SCL classification values to mask
// out. Callers always derive the working set via Effective; the
// configured set is never modified in place.
type FilterSet struct {
	values map[int]bool
}

func NewFilterSet(values []int) FilterSet {
	m := make(map[int]bool, len(values)+1)
	for _, v := range values {
		m[v] = true
	}
	return FilterSet{values: m}
}

func (f FilterSet) Contains(v int) bool {
	return f.values[v]
}

// Effective returns a copy of the set with the no-data value 0 added.
func (f FilterSet) Effective() FilterSet {
	m := make(map[int]bool, len(f.values)+1)
	for v := range f.values {
		m[v] = true
	}
	m[0] = true
	return FilterSet{values: m}
}

// Values returns the members in ascending order.
func (f FilterSet) Values() []int {
	out := make([]int, 0, len(f.values))
	for v := range f.values {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func (f FilterSet) Len() int {
	return len(f.values)
}
