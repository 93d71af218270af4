package nav

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Identified constrains queue elements to anything carrying a stable identifier.
type Identified interface {
	EntityID() string
}

// Queue is an ordered, de-duplicated, looping list of candidate items scoped
// to a filter. The index stays within [0, len) whenever the queue is non-empty
// and Next/Previous wrap instead of terminating.
type Queue[T Identified] struct {
	items  []T
	index  int
	filter Filter
}

// NewQueue builds a queue from raw candidates, de-duplicating by id while
// preserving first-seen order.
func NewQueue[T Identified](filter Filter, items []T) *Queue[T] {
	unique := lo.UniqBy(items, func(item T) string {
		return item.EntityID()
	})
	return &Queue[T]{items: unique, filter: filter}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Empty reports whether the queue holds no candidates.
func (q *Queue[T]) Empty() bool {
	return len(q.items) == 0
}

// Filter returns the descriptor the queue was built from.
func (q *Queue[T]) Filter() Filter {
	return q.filter
}

// Current returns the item at the current index without advancing.
func (q *Queue[T]) Current() mo.Option[T] {
	if q.Empty() {
		return mo.None[T]()
	}
	return mo.Some(q.items[q.index])
}

// Next advances the index by one and returns the item there, wrapping to the
// first element past the end. The queue never terminates; it loops.
func (q *Queue[T]) Next() mo.Option[T] {
	if q.Empty() {
		return mo.None[T]()
	}
	q.index = (q.index + 1) % len(q.items)
	return mo.Some(q.items[q.index])
}

// Previous steps the index back by one, wrapping to the last element before the start.
func (q *Queue[T]) Previous() mo.Option[T] {
	if q.Empty() {
		return mo.None[T]()
	}
	q.index = (q.index - 1 + len(q.items)) % len(q.items)
	return mo.Some(q.items[q.index])
}
