// Package store implements barrel's ordered key-value abstraction and its
// namespaced persisted layout on top of an opaque, prefix-iterable
// KeyValue engine.
//
// Engines register themselves by name through RegisterKeyValue, so a
// deployment can swap the embedded default for another ordered store
// without this package depending on it directly; store/memkv ships the
// in-process reference engine.
package store

import (
	"errors"
	"fmt"

	"github.com/Kushal-kothari/barrel-platform/config"
)

// ErrNotFound is returned by KeyValue.Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// KeyValue is a sorted, enumerable key-value store supporting batch
// mutations.
type KeyValue interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error

	// Find returns an iterator positioned before the first key/value pair
	// whose key is >= the given key.
	Find(key string) Iterator

	CommitBatch(b BatchMutation) error

	Close() error
}

// Iterator iterates over a KeyValue's entries in key order.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is available.
	Next() bool
	Key() string
	Value() string
	Close() error
}

// BatchMutation accumulates a set of Set/Delete operations to be applied
// atomically via KeyValue.CommitBatch.
type BatchMutation interface {
	Set(key, value string)
	Delete(key string)
	Mutations() []Mutation
}

// Mutation is one operation within a BatchMutation.
type Mutation struct {
	Key      string
	Value    string
	IsDelete bool
}

type batch struct {
	ops []Mutation
}

// NewBatch returns an empty BatchMutation.
func NewBatch() BatchMutation {
	return &batch{}
}

func (b *batch) Set(key, value string) {
	b.ops = append(b.ops, Mutation{Key: key, Value: value})
}

func (b *batch) Delete(key string) {
	b.ops = append(b.ops, Mutation{Key: key, IsDelete: true})
}

func (b *batch) Mutations() []Mutation {
	return b.ops
}

var ctors = make(map[string]func(*config.Obj) (KeyValue, error))

// RegisterKeyValue registers a named KeyValue engine constructor. Engines
// call this from an init function.
func RegisterKeyValue(typ string, ctor func(*config.Obj) (KeyValue, error)) {
	if typ == "" || ctor == nil {
		panic("store: zero type or nil constructor")
	}
	if _, dup := ctors[typ]; dup {
		panic("store: duplicate registration of type " + typ)
	}
	ctors[typ] = ctor
}

// ErrUnknownStore is returned by NewKeyValue when the configured engine
// type has not been registered.
var ErrUnknownStore = errors.New("store: unknown store type")

// NewKeyValue constructs a registered KeyValue engine from its config.
func NewKeyValue(cfg *config.Obj) (KeyValue, error) {
	typ := cfg.RequiredString("type")
	ctor, ok := ctors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, typ)
	}
	kv, err := ctor(cfg)
	if err != nil {
		return nil, err
	}
	return kv, cfg.Validate()
}
