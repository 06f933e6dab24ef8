package simulation

import (
	"fmt"
	"sync"

	"github.com/iotaledger/hive.go/core/generics/constraints"
	"go.uber.org/atomic"
)

// region AtomicCounters ///////////////////////////////////////////////////////////////////////////////////////////////

// AtomicCounters are lock free counters that are created once during setup and updated from event handlers.
type AtomicCounters[K comparable] struct {
	counters map[K]*atomic.Int64
	mutex    sync.RWMutex
}

func NewAtomicCounters[K comparable]() *AtomicCounters[K] {
	return &AtomicCounters[K]{
		counters: make(map[K]*atomic.Int64),
	}
}

func (a *AtomicCounters[K]) CreateCounter(key K, initValue int64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if _, exists := a.counters[key]; !exists {
		a.counters[key] = atomic.NewInt64(initValue)
	}
}

func (a *AtomicCounters[K]) Add(key K, value int64) int64 {
	return a.counter(key).Add(value)
}

func (a *AtomicCounters[K]) Set(key K, value int64) {
	a.counter(key).Store(value)
}

func (a *AtomicCounters[K]) Get(key K) int64 {
	return a.counter(key).Load()
}

func (a *AtomicCounters[K]) counter(key K) *atomic.Int64 {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	counter, exists := a.counters[key]
	if !exists {
		panic(fmt.Sprintf("Trying to use not initiated counter, key: %v", key))
	}

	return counter
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region MapCounters //////////////////////////////////////////////////////////////////////////////////////////////////

// MapCounters group counters by name and key. Keys are created on first use.
type MapCounters[K comparable, V constraints.Numeric] struct {
	counters map[string]map[K]V
	mutex    sync.RWMutex
}

func NewCounters[K comparable, V constraints.Numeric]() *MapCounters[K, V] {
	return &MapCounters[K, V]{
		counters: make(map[string]map[K]V),
	}
}

func (m *MapCounters[K, V]) CreateCounter(counterKey string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.counters[counterKey]; !exists {
		m.counters[counterKey] = make(map[K]V)
	}
}

func (m *MapCounters[K, V]) Add(counterKey string, key K, value V) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.innerMap(counterKey)[key] += value
}

func (m *MapCounters[K, V]) Get(counterKey string, key K) V {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.innerMap(counterKey)[key]
}

// Total sums up all values of the counter.
func (m *MapCounters[K, V]) Total(counterKey string) (total V) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, value := range m.innerMap(counterKey) {
		total += value
	}

	return total
}

func (m *MapCounters[K, V]) innerMap(counterKey string) map[K]V {
	innerMap, exists := m.counters[counterKey]
	if !exists {
		panic(fmt.Sprintf("Trying to use not initiated counter, key: %s", counterKey))
	}

	return innerMap
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
