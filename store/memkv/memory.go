// Package memkv is an in-process reference implementation of
// store.KeyValue over a sorted slice, used as barrel's default engine and
// in every store-backed test in this module.
package memkv

import (
	"sort"
	"sync"

	"github.com/Kushal-kothari/barrel-platform/config"
	"github.com/Kushal-kothari/barrel-platform/store"
)

func init() {
	store.RegisterKeyValue("memory", func(*config.Obj) (store.KeyValue, error) {
		return New(), nil
	})
}

// Memory is a sorted, in-memory KeyValue engine.
type Memory struct {
	mu   sync.RWMutex
	keys []string // kept sorted
	vals map[string]string
}

// New returns an empty Memory engine.
func New() *Memory {
	return &Memory{vals: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key)
	return nil
}

func (m *Memory) CommitBatch(b store.BatchMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range b.Mutations() {
		if op.IsDelete {
			m.deleteLocked(op.Key)
		} else {
			m.setLocked(op.Key, op.Value)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) setLocked(key, value string) {
	if _, exists := m.vals[key]; !exists {
		idx := sort.SearchStrings(m.keys, key)
		m.keys = append(m.keys, "")
		copy(m.keys[idx+1:], m.keys[idx:])
		m.keys[idx] = key
	}
	m.vals[key] = value
}

func (m *Memory) deleteLocked(key string) {
	if _, exists := m.vals[key]; !exists {
		return
	}
	delete(m.vals, key)
	idx := sort.SearchStrings(m.keys, key)
	if idx < len(m.keys) && m.keys[idx] == key {
		m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	}
}

// Find returns an iterator over entries with key >= the given key.
func (m *Memory) Find(key string) store.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := sort.SearchStrings(m.keys, key)
	snapshot := make([]string, len(m.keys)-start)
	copy(snapshot, m.keys[start:])
	return &iterator{mem: m, keys: snapshot, idx: -1}
}

type iterator struct {
	mem  *Memory
	keys []string
	idx  int
}

func (it *iterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *iterator) Key() string {
	return it.keys[it.idx]
}

func (it *iterator) Value() string {
	it.mem.mu.RLock()
	defer it.mem.mu.RUnlock()
	return it.mem.vals[it.keys[it.idx]]
}

func (it *iterator) Close() error { return nil }
