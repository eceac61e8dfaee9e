// Package foundation holds small generic building blocks shared by tsbuild packages.
package foundation

import "fmt"

// Option represents a value that may or may not be present.
// It replaces nullable pointers so "unset" and "set to the zero value" stay distinct.
type Option[T any] struct {
	value   T
	present bool
}

// Some wraps a supplied value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None creates an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsNone reports whether no value was supplied.
func (o Option[T]) IsNone() bool {
	return !o.present
}

// Get returns the value and whether it was present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// UnwrapOr returns the value if present, otherwise returns the fallback.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// UnwrapOrElse returns the value if present, otherwise calls fn.
func (o Option[T]) UnwrapOrElse(fn func() T) T {
	if o.present {
		return o.value
	}
	return fn()
}

// Or returns o when it holds a value, otherwise other.
func (o Option[T]) Or(other Option[T]) Option[T] {
	if o.present {
		return o
	}
	return other
}

// FromPointer creates an Option from a pointer. A nil pointer is None.
func FromPointer[T any](ptr *T) Option[T] {
	if ptr != nil {
		return Some(*ptr)
	}
	return None[T]()
}

// String renders the value, or "<unset>" when absent.
func (o Option[T]) String() string {
	if o.present {
		return fmt.Sprint(o.value)
	}
	return "<unset>"
}
