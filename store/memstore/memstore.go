/*
DESCRIPTION
  In-memory store.Store fake, used by component tests in place of a
  real Cloud Datastore client.

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

// Package memstore implements store.Store entirely in memory. It
// exists so that scanner, statemon, dispatcher and collector can be
// unit tested without a Cloud Datastore emulator, while still
// exercising the exact conditional-write and query semantics the real
// backend guarantees.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/chatwatch/cloud/store"
)

// Store is an in-memory implementation of store.Store. Entities are
// held as their Encode() bytes, so callers exercise the same
// serialize/deserialize path as the real backend.
type Store struct {
	mu      sync.Mutex
	records map[store.Key][]byte
	nextID  map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[store.Key][]byte),
		nextID:  make(map[string]int64),
	}
}

func (s *Store) IDKey(kind string, id int64) *store.Key {
	return &store.Key{Kind: kind, ID: id}
}

func (s *Store) NameKey(kind, name string) *store.Key {
	return &store.Key{Kind: kind, Name: name}
}

func (s *Store) IncompleteKey(kind string) *store.Key {
	return &store.Key{Kind: kind}
}

// complete assigns the next sequential ID to an incomplete key. Caller
// must hold s.mu.
func (s *Store) complete(key *store.Key) *store.Key {
	if key.Name != "" || key.ID != 0 {
		return key
	}
	s.nextID[key.Kind]++
	return &store.Key{Kind: key.Kind, ID: s.nextID[key.Kind]}
}

func (s *Store) NewQuery(kind string, keysOnly bool, keyParts ...string) store.Query {
	return &Query{kind: kind}
}

func (s *Store) Get(ctx context.Context, key *store.Key, dst store.Entity) error {
	s.mu.Lock()
	data, ok := s.records[*key]
	s.mu.Unlock()
	if !ok {
		return store.ErrNoSuchEntity
	}
	return dst.Decode(data)
}

// GetAll runs query over the in-memory records of its kind, applying
// filters, ordering, limit and offset, and decodes matches into dst.
func (s *Store) GetAll(ctx context.Context, query store.Query, dst interface{}) ([]*store.Key, error) {
	q, ok := query.(*Query)
	if !ok {
		return nil, store.ErrWrongType
	}

	s.mu.Lock()
	type row struct {
		key  store.Key
		data []byte
	}
	var rows []row
	for k, v := range s.records {
		if k.Kind != q.kind {
			continue
		}
		rows = append(rows, row{k, v})
	}
	s.mu.Unlock()

	matched := rows[:0]
	for _, r := range rows {
		if q.matchesData(r.data) {
			matched = append(matched, r)
		}
	}

	if q.order != "" {
		field, desc := strings.TrimPrefix(q.order, "-"), strings.HasPrefix(q.order, "-")
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return fieldLess(matched[j].data, matched[i].data, field)
			}
			return fieldLess(matched[i].data, matched[j].data, field)
		})
	}
	if q.offset > 0 && q.offset < len(matched) {
		matched = matched[q.offset:]
	} else if q.offset >= len(matched) {
		matched = nil
	}
	if q.limit > 0 && q.limit < len(matched) {
		matched = matched[:q.limit]
	}

	out := make([]*store.Key, 0, len(matched))
	for _, r := range matched {
		elem := store.NewEntity(q.kind)
		if elem == nil {
			return nil, store.ErrWrongType
		}
		if err := elem.Decode(r.data); err != nil {
			return nil, err
		}
		if err := appendTo(dst, elem); err != nil {
			return nil, err
		}
		k := r.key
		out = append(out, &k)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, key *store.Key, src store.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.complete(key)
	if _, exists := s.records[*k]; exists {
		return store.ErrEntityExists
	}
	s.records[*k] = src.Encode()
	return nil
}

func (s *Store) Put(ctx context.Context, key *store.Key, src store.Entity) (*store.Key, error) {
	s.mu.Lock()
	k := s.complete(key)
	s.records[*k] = src.Encode()
	s.mu.Unlock()
	if cache := src.GetCache(); cache != nil {
		cache.Set(k, src)
	}
	return k, nil
}

func (s *Store) Update(ctx context.Context, key *store.Key, fn func(store.Entity), dst store.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[*key]
	if !ok {
		return store.ErrNoSuchEntity
	}
	if err := dst.Decode(data); err != nil {
		return err
	}
	fn(dst)
	s.records[*key] = dst.Encode()
	return nil
}

func (s *Store) BatchPut(ctx context.Context, keys []*store.Key, srcs []store.Entity) []error {
	errs := make([]error, len(keys))
	for i := range keys {
		_, err := s.Put(ctx, keys[i], srcs[i])
		errs[i] = err
	}
	return errs
}

func (s *Store) DeleteMulti(ctx context.Context, keys []*store.Key) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.records, *k)
	}
	s.mu.Unlock()
	for _, k := range keys {
		invalidate(k)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key *store.Key) error {
	s.mu.Lock()
	delete(s.records, *key)
	s.mu.Unlock()
	invalidate(key)
	return nil
}

func invalidate(key *store.Key) {
	ent := store.NewEntity(key.Kind)
	if ent == nil {
		return
	}
	if cache := ent.GetCache(); cache != nil {
		cache.Delete(key)
	}
}

// appendTo appends ent onto the slice pointed to by dst, matching the
// concrete element type by reflection (see copyInto).
func appendTo(dst interface{}, ent store.Entity) error {
	return copyInto(dst, ent)
}

type filter struct {
	field    string
	operator string
	value    interface{}
}

// Query is an in-memory store.Query. It records filters, ordering,
// limit and offset for Store.GetAll to apply.
type Query struct {
	kind    string
	filters []filter
	order   string
	limit   int
	offset  int
}

func (q *Query) Filter(filterStr string, value interface{}) error {
	if value == nil {
		return nil
	}
	field, op := splitFilter(filterStr)
	q.filters = append(q.filters, filter{field, op, value})
	return nil
}

func (q *Query) FilterField(fieldName, operator string, value interface{}) error {
	if value == nil {
		return nil
	}
	q.filters = append(q.filters, filter{fieldName, operator, value})
	return nil
}

func (q *Query) Order(fieldName string) { q.order = fieldName }
func (q *Query) Limit(limit int)        { q.limit = limit }
func (q *Query) Offset(offset int)      { q.offset = offset }

func splitFilter(s string) (field, op string) {
	s = strings.TrimSpace(s)
	for _, o := range []string{">=", "<=", "!=", "=", ">", "<"} {
		if i := strings.Index(s, o); i >= 0 {
			return strings.TrimSpace(s[:i]), o
		}
	}
	return s, "="
}

// matchesData reports whether a record's raw Encode() bytes satisfy
// every filter on q, reading JSON field values directly so no concrete
// Go type is needed at query time.
func (q *Query) matchesData(data []byte) bool {
	for _, f := range q.filters {
		if !fieldMatches(data, f) {
			return false
		}
	}
	return true
}
