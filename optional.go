package upload

import "fmt"

// Opt holds a value that may be unset. The zero value is unset.
type Opt[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

func None[T any]() Opt[T] {
	return Opt[T]{}
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Opt[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value if set, otherwise d.
func (o Opt[T]) OrElse(d T) T {
	if o.set {
		return o.value
	}
	return d
}

func (o Opt[T]) String() string {
	if !o.set {
		return "unset"
	}
	return fmt.Sprint(o.value)
}
