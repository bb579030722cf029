package collect

// Optional holds a value that may be absent, as produced by MinBy and MaxBy.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.ok
}

// OrElse returns the value, or other when empty.
func (o Optional[T]) OrElse(other T) T {
	if o.ok {
		return o.value
	}
	return other
}

// OrElseGet returns the value, or the result of supplier when empty.
func (o Optional[T]) OrElseGet(supplier func() T) T {
	if o.ok {
		return o.value
	}
	return supplier()
}

// IfPresent calls fn with the value when one is held.
func (o Optional[T]) IfPresent(fn func(T)) {
	if o.ok {
		fn(o.value)
	}
}

// OfNullable returns an Optional holding *p, or None when p is nil.
func OfNullable[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// MapOptional applies fn to the value of o, if any.
func MapOptional[T, R any](o Optional[T], fn func(T) R) Optional[R] {
	if !o.ok {
		return None[R]()
	}
	return Some(fn(o.value))
}

// FlatMapOptional applies fn to the value of o, if any, without nesting the result.
func FlatMapOptional[T, R any](o Optional[T], fn func(T) Optional[R]) Optional[R] {
	if !o.ok {
		return None[R]()
	}
	return fn(o.value)
}

// FilterOptional keeps the value of o only if pred accepts it.
func FilterOptional[T any](o Optional[T], pred func(T) bool) Optional[T] {
	if o.ok && pred(o.value) {
		return o
	}
	return None[T]()
}
