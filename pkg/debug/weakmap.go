package debug

import (
	"sync"
	"weak"
)

// WeakMap holds values behind weak pointers, so a registry entry does not
// keep the value it points at alive on its own — a variablesReference
// handed out for a thread's stack frame should stop resolving once that
// frame is popped and nothing else references it, not pin it in memory
// for the lifetime of the debug session. This is the Go counterpart of
// the original's WeakMap<K, V> (std::map<K, std::weak_ptr<V>>), built on
// the standard library's weak.Pointer instead of shared_ptr/weak_ptr
// since Go has no reference-counted pointer type to weaken — weak.Pointer
// is the only mechanism in the ecosystem for this, so this is the one
// place the module leans on the standard library by necessity rather than
// by a missing third-party option.
type WeakMap[K comparable, V any] struct {
	mu         sync.Mutex
	m          map[K]weak.Pointer[V]
	reapAtSize int
}

// NewWeakMap returns an empty WeakMap. reapAtSize starts at 32, matching
// the original's initial threshold.
func NewWeakMap[K comparable, V any]() *WeakMap[K, V] {
	return &WeakMap[K, V]{
		m:          map[K]weak.Pointer[V]{},
		reapAtSize: 32,
	}
}

// Get returns the value for key, or nil if it was never added, has been
// removed, or has since been garbage collected.
func (w *WeakMap[K, V]) Get(key K) *V {
	w.mu.Lock()
	defer w.mu.Unlock()
	wp, ok := w.m[key]
	if !ok {
		return nil
	}
	return wp.Value()
}

// Add registers val under key, reaping expired entries first if the map
// has grown past reapAtSize, then doubling the threshold (plus 32) the
// same way the original's add() does — so reap cost stays amortized
// rather than run on every insert.
func (w *WeakMap[K, V]) Add(key K, val *V) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.m) > w.reapAtSize {
		w.reapLocked()
		w.reapAtSize = len(w.m)*2 + 32
	}
	w.m[key] = weak.Make(val)
}

// Remove drops key from the map, regardless of whether its value is
// still live.
func (w *WeakMap[K, V]) Remove(key K) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.m, key)
}

func (w *WeakMap[K, V]) reapLocked() {
	for k, wp := range w.m {
		if wp.Value() == nil {
			delete(w.m, k)
		}
	}
}

// Range calls f for every entry whose value is still live, in
// unspecified order, skipping expired entries the way the original
// iterator's skipNull() does. Range stops early if f returns false.
func (w *WeakMap[K, V]) Range(f func(key K, val *V) bool) {
	w.mu.Lock()
	type entry struct {
		key K
		val *V
	}
	live := make([]entry, 0, len(w.m))
	for k, wp := range w.m {
		if v := wp.Value(); v != nil {
			live = append(live, entry{k, v})
		}
	}
	w.mu.Unlock()

	for _, e := range live {
		if !f(e.key, e.val) {
			return
		}
	}
}
