package user

import "time"

// Optional tells a value that was supplied apart from one that was left out.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

func (o Optional[T]) IsSet() bool { return o.set }

func (o Optional[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// FromPtr maps a nil pointer to an absent value.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Optional[T]{}
	}
	return Some(*p)
}

// Patch holds the personal fields a partial update may change.
type Patch struct {
	Name      Optional[string]
	Lastname  Optional[string]
	Username  Optional[string]
	Email     Optional[string]
	BirthDate Optional[time.Time]
}
