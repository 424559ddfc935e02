package utils

import (
	"reflect"
	"testing"
)

func TestFilterSetEffectiveAddsNoData(t *testing.T) {
	fs := NewFilterSet([]int{3, 7, 8, 9, 10})
	eff := fs.Effective()

	if !eff.Contains(0) {
		t.Error("effective set must contain the no-data value 0")
	}
	if fs.Contains(0) {
		t.Error("configured set must not be modified by Effective")
	}
	if fs.Len() != 5 {
		t.Errorf("configured set length changed: got %d, want 5", fs.Len())
	}
	if eff.Len() != 6 {
		t.Errorf("effective set length: got %d, want 6", eff.Len())
	}
}

func TestFilterSetEffectiveRepeatable(t *testing.T) {
	fs := NewFilterSet([]int{3})
	first := fs.Effective().Values()
	second := fs.Effective().Values()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Effective not repeatable: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []int{0, 3}) {
		t.Errorf("got %v, want [0 3]", first)
	}
}

func TestFilterSetEmpty(t *testing.T) {
	fs := NewFilterSet(nil)
	if fs.Len() != 0 {
		t.Errorf("got %d values, want 0", fs.Len())
	}
	eff := fs.Effective()
	if !reflect.DeepEqual(eff.Values(), []int{0}) {
		t.Errorf("got %v, want [0]", eff.Values())
	}
}
