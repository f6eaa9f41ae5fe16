// Package idset implements set algebra over sorted, duplicate-free slices of
// integer identifiers, which is how union and intersection members are kept.
package idset

import (
	"cmp"
	"slices"
	"sort"

	"github.com/xtgo/set"
)

type sortable[T cmp.Ordered] []T

func (s sortable[T]) Len() int           { return len(s) }
func (s sortable[T]) Less(i, j int) bool { return s[i] < s[j] }
func (s sortable[T]) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

var _ sort.Interface = sortable[uint32](nil)

// From returns ids sorted and without duplicates. ids is not modified.
func From[T cmp.Ordered](ids ...T) []T {
	data := slices.Clone(ids)
	slices.Sort(data)
	n := set.Uniq(sortable[T](data))
	return data[:n]
}

// Union of two sets as returned by From
func Union[T cmp.Ordered](a, b []T) []T {
	return apply(set.Union, a, b)
}

// Inter returns the elements present in both a and b
func Inter[T cmp.Ordered](a, b []T) []T {
	return apply(set.Inter, a, b)
}

// Diff returns the elements of a which are not in b
func Diff[T cmp.Ordered](a, b []T) []T {
	return apply(set.Diff, a, b)
}

// IsSub reports whether every element of a is in b
func IsSub[T cmp.Ordered](a, b []T) bool {
	data := make([]T, 0, len(a)+len(b))
	data = append(append(data, a...), b...)
	return set.IsSub(sortable[T](data), len(a))
}

func Contains[T cmp.Ordered](s []T, elem T) bool {
	_, found := slices.BinarySearch(s, elem)
	return found
}

func apply[T cmp.Ordered](op func(sort.Interface, int) int, a, b []T) []T {
	data := make([]T, 0, len(a)+len(b))
	data = append(append(data, a...), b...)
	n := op(sortable[T](data), len(a))
	return data[:n]
}
