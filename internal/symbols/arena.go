package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// arena stores symbol data by handle; index 0 is reserved for the sentinel.
// Entries are heap-allocated so pointers obtained from get survive growth.
type arena[T any] struct {
	what string
	data []*T
}

func newArena[T any](what string, capacity uint32) arena[T] {
	if capacity == 0 {
		capacity = 64
	}
	return arena[T]{
		what: what,
		data: make([]*T, 1, capacity+1),
	}
}

// alloc appends v and returns its raw index.
func (a *arena[T]) alloc(v *T) uint32 {
	if v == nil {
		panic(fmt.Sprintf("%s arena: nil entry", a.what))
	}
	value, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", a.what, err))
	}
	a.data = append(a.data, v)
	return value
}

// get returns the entry or nil for the sentinel / out-of-range handles.
func (a *arena[T]) get(id uint32) *T {
	if id == 0 || int(id) >= len(a.data) {
		return nil
	}
	return a.data[id]
}

// used reports the handle bound, sentinel included. Valid handles are
// 1..used-1.
func (a *arena[T]) used() int { return len(a.data) }
