package main

// stack is a bounded LIFO held in a padded array: pad slots of slack sit
// below the logical bottom and above the logical top. Push and pop only
// refuse to run off the ends of the array; the logical limits are enforced
// by check, which the VM calls at word dispatch boundaries. Between checks a
// few over-pops or over-pushes land in the padding, never outside it.
type stack[T any] struct {
	buf   []T
	pad   int
	limit int
	sp    int

	under, over error
}

func newStack[T any](limit, pad int, under, over error) stack[T] {
	return stack[T]{
		buf:   make([]T, pad+limit+pad),
		pad:   pad,
		limit: limit,
		sp:    pad,
		under: under,
		over:  over,
	}
}

func (s *stack[T]) depth() int { return s.sp - s.pad }

func (s *stack[T]) reset() {
	var zero T
	for i := range s.buf[:s.pad] {
		s.buf[i] = zero
	}
	s.sp = s.pad
}

func (s *stack[T]) push(v T) error {
	if s.sp >= len(s.buf) {
		return s.over
	}
	s.buf[s.sp] = v
	s.sp++
	return nil
}

func (s *stack[T]) pop() (v T, err error) {
	if s.sp <= 0 {
		return v, s.under
	}
	s.sp--
	return s.buf[s.sp], nil
}

// peek returns the i-th value from the top, 0 being the top. Unlike pop it
// never reads below the logical bottom.
func (s *stack[T]) peek(i int) (v T, err error) {
	j := s.sp - 1 - i
	if i < 0 || j < s.pad {
		return v, s.under
	}
	return s.buf[j], nil
}

// check returns an error if need values are not available, or if the stack
// would exceed its limit after replacing them with room values.
func (s *stack[T]) check(need, room int) error {
	d := s.depth()
	if d < need {
		return s.under
	}
	if d-need+room > s.limit {
		return s.over
	}
	return nil
}

func (s *stack[T]) values() []T {
	if s.sp <= s.pad {
		return []T{}
	}
	return append([]T(nil), s.buf[s.pad:s.sp]...)
}
