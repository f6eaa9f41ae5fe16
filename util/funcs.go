package util

import "iter"

func FilterIter[A any](seq iter.Seq[A], keep func(A) bool) iter.Seq[A] {
	return func(yield func(A) bool) {
		for v := range seq {
			if keep(v) && !yield(v) {
				return
			}
		}
	}
}

// AllIter reports whether f holds for every element, stopping at the first that does not
func AllIter[A any](seq iter.Seq[A], f func(A) bool) bool {
	for v := range seq {
		if !f(v) {
			return false
		}
	}
	return true
}
