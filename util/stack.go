package util

// Stack is a LIFO, its zero value is empty and ready to use
type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v A) {
	s.items = append(s.items, v)
}

func (s *Stack[A]) Pop() (ret A, ok bool) {
	if len(s.items) == 0 {
		return ret, false
	}
	last := len(s.items) - 1
	ret = s.items[last]
	s.items = s.items[:last]
	return ret, true
}

func (s *Stack[A]) Len() int {
	return len(s.items)
}

// IndexFunc returns how far from the top the first item satisfying f is, or -1
func (s *Stack[A]) IndexFunc(f func(A) bool) int {
	for i := len(s.items) - 1; i >= 0; i-- {
		if f(s.items[i]) {
			return len(s.items) - 1 - i
		}
	}
	return -1
}
