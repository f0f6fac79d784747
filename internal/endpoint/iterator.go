package endpoint

// SliceIterator implements Iterator over an in-memory slice.
type SliceIterator[T any] struct {
	items []T
	index int
	limit int
}

// NewSliceIterator iterates items, stopping after limit values when limit > 0.
func NewSliceIterator[T any](items []T, limit int) *SliceIterator[T] {
	return &SliceIterator[T]{items: items, index: -1, limit: limit}
}

func (it *SliceIterator[T]) Next() bool {
	if it.limit > 0 && it.index+1 >= it.limit {
		return false
	}
	if it.index < len(it.items)-1 {
		it.index++
		return true
	}
	return false
}

func (it *SliceIterator[T]) Value() T {
	var zero T
	if it.index >= 0 && it.index < len(it.items) {
		return it.items[it.index]
	}
	return zero
}

func (it *SliceIterator[T]) Err() error { return nil }

func (it *SliceIterator[T]) Close() error { return nil }
