/*
DESCRIPTION
  Abstract keyed store contract shared by every component: Channels,
  Broadcasts, WorkerTasks and Messages are all accessed through this
  narrow capability set so that tests can substitute in-memory fakes
  instead of a real Cloud Datastore client.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

// Package store defines the abstract keyed store used by every
// component of the broadcast-lifecycle orchestrator. Durable-store
// specifics are treated as external; this package only fixes the
// capability boundary that concrete backends (store/clouddatastore) and
// test fakes (store/memstore) must satisfy.
package store

import (
	"context"
	"errors"
)

// Sentinel errors returned by Store implementations. Conditional-write
// misses (ErrEntityExists on Create, ErrNoSuchEntity on Update/Get) are
// part of normal operation, not failures; callers must not log them as
// errors.
var (
	ErrNoSuchEntity   = errors.New("store: no such entity")
	ErrEntityExists   = errors.New("store: entity exists")
	ErrInvalidStoreID = errors.New("store: invalid store id")
	ErrWrongType      = errors.New("store: wrong entity type")
	ErrDecoding       = errors.New("store: decoding error")
	ErrUnimplemented  = errors.New("store: unimplemented")
)

// Key identifies an entity within a kind. Either Name or ID identifies
// the entity; an incomplete key (both zero) asks Put to assign a new
// ID, returned as Put's completed key.
type Key struct {
	Kind string
	Name string
	ID   int64
}

// Entity is implemented by every value that can be stored. Encode and
// Decode provide the wire format (JSON, following model/site.go's
// pattern); Copy supports the cache's copy-on-read/copy-on-write
// semantics; GetCache returns the per-kind cache, or nil to disable
// caching for that kind.
type Entity interface {
	Encode() []byte
	Decode([]byte) error
	Copy(dst Entity) (Entity, error)
	GetCache() Cache
}

// Query is a lazy, filterable scan over one kind.
type Query interface {
	Filter(filterStr string, value interface{}) error
	FilterField(fieldName, operator string, value interface{}) error
	Order(fieldName string)
	Limit(limit int)
	Offset(offset int)
}

// Store is the full capability set required by the shared data-access
// contract (spec §4.5): get, put, put-if-absent, field-level update,
// batch put, scan/query.
type Store interface {
	// IDKey, NameKey and IncompleteKey construct keys for the given kind.
	IDKey(kind string, id int64) *Key
	NameKey(kind, name string) *Key
	IncompleteKey(kind string) *Key

	// NewQuery returns a new Query over kind.
	NewQuery(kind string, keysOnly bool, keyParts ...string) Query

	// Get reads the entity at key into dst. Returns ErrNoSuchEntity if absent.
	Get(ctx context.Context, key *Key, dst Entity) error

	// GetAll runs query and decodes matching entities into dst, a
	// pointer to a slice of the concrete entity type.
	GetAll(ctx context.Context, query Query, dst interface{}) ([]*Key, error)

	// Create writes src at key only if no entity currently exists there
	// (put_if_absent). Returns ErrEntityExists otherwise.
	Create(ctx context.Context, key *Key, src Entity) error

	// Put writes src at key unconditionally, creating or overwriting.
	Put(ctx context.Context, key *Key, src Entity) (*Key, error)

	// Update reads the current entity into dst, applies fn, and writes
	// the result back transactionally (field-level mutate).
	Update(ctx context.Context, key *Key, fn func(Entity), dst Entity) error

	// BatchPut writes up to 25 records. Each record's write is atomic;
	// partial success is allowed. The returned slice is parallel to
	// srcs, with a nil entry for each record written successfully.
	BatchPut(ctx context.Context, keys []*Key, srcs []Entity) []error

	// DeleteMulti removes the entities at keys.
	DeleteMulti(ctx context.Context, keys []*Key) error

	// Delete removes the entity at key.
	Delete(ctx context.Context, key *Key) error
}

// MaxBatchSize is the largest number of records BatchPut guarantees to
// write atomically per record in one call (spec §4.5, §4.4).
const MaxBatchSize = 25

// entityCtor constructs a zero-value Entity for a registered kind.
type entityCtor func() Entity

var registry = map[string]entityCtor{}

// RegisterEntity registers the zero-value constructor for kind, so that
// GetAll and generic tooling can instantiate the right concrete type.
func RegisterEntity(kind string, ctor func() Entity) {
	registry[kind] = ctor
}

// NewEntity constructs a zero-value entity for a registered kind, or
// nil if kind was never registered.
func NewEntity(kind string) Entity {
	ctor, ok := registry[kind]
	if !ok {
		return nil
	}
	return ctor()
}
