/*
DESCRIPTION
  Cloud Datastore-backed implementation of store.Store.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Scott Barnard <scott@ausocean.org>

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

// Package clouddatastore implements store.Store against Google Cloud
// Datastore, the concrete backend for the Channels, Broadcasts,
// WorkerTasks and Messages tables. Entities are stored as a single
// noindex blob property holding their Encode() form, matching the
// model package's JSON Encode/Decode contract.
package clouddatastore

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"reflect"
	"strings"

	gcds "cloud.google.com/go/datastore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/chatwatch/cloud/store"
)

// Store implements store.Store for Google Cloud Datastore.
type Store struct {
	client *gcds.Client
}

// blobRecord is the on-the-wire Datastore entity: a single noindex
// property holding an Entity's Encode() bytes.
type blobRecord struct {
	Data []byte `datastore:",noindex"`
}

// New returns a new Store, using url to retrieve credentials and
// authenticate. The id can be passed with an optional database name in
// the form <id>/<database>; the default database is used otherwise. To
// obtain credentials from a Google Storage bucket, url takes the form
// gs://bucket_name/creds. A url without a scheme is interpreted as a
// file. If the environment variable <ID>_CREDENTIALS is defined it
// overrides the supplied url.
func New(ctx context.Context, id, url string) (*Store, error) {
	s := new(Store)

	var db string
	parts := strings.Split(id, "/")
	switch len(parts) {
	case 1:
	case 2:
		db = parts[1]
	default:
		return nil, store.ErrInvalidStoreID
	}
	id = parts[0]

	ev := strings.ToUpper(id) + "_CREDENTIALS"
	if v := os.Getenv(ev); v != "" {
		url = v
	}

	var err error
	if url == "" {
		s.client, err = gcds.NewClientWithDatabase(ctx, id, db)
		if err != nil {
			log.Printf("clouddatastore: NewClientWithDatabase failed: %v", err)
			return nil, err
		}
		return s, nil
	}

	creds, err := readCredentials(ctx, url)
	if err != nil {
		return nil, err
	}
	s.client, err = gcds.NewClientWithDatabase(ctx, id, db, option.WithCredentialsJSON(creds))
	return s, err
}

func readCredentials(ctx context.Context, url string) ([]byte, error) {
	const gsbScheme = "gs://"
	if !strings.HasPrefix(url, gsbScheme) {
		return os.ReadFile(url)
	}
	url = url[len(gsbScheme):]
	sep := strings.IndexByte(url, '/')
	if sep == -1 {
		return nil, errors.New("clouddatastore: invalid gs bucket URL")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	r, err := client.Bucket(url[:sep]).Object(url[sep+1:]).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
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

func toNative(k *store.Key) *gcds.Key {
	if k.Name != "" {
		return gcds.NameKey(k.Kind, k.Name, nil)
	}
	if k.ID != 0 {
		return gcds.IDKey(k.Kind, k.ID, nil)
	}
	return gcds.IncompleteKey(k.Kind, nil)
}

func fromNative(k *gcds.Key) *store.Key {
	return &store.Key{Kind: k.Kind, Name: k.Name, ID: k.ID}
}

// NewQuery returns a new Query wrapping a datastore.Query. If keysOnly
// is true the query is restricted to keys; keyParts is otherwise
// unused, matching the teacher's own NewQuery signature.
func (s *Store) NewQuery(kind string, keysOnly bool, keyParts ...string) store.Query {
	q := &Query{query: gcds.NewQuery(kind)}
	if keysOnly {
		q.query = q.query.KeysOnly()
	}
	return q
}

func (s *Store) Get(ctx context.Context, key *store.Key, dst store.Entity) error {
	if cache := dst.GetCache(); cache != nil {
		if err := cache.Get(key, dst); err == nil {
			return nil
		}
	}
	var rec blobRecord
	err := s.client.Get(ctx, toNative(key), &rec)
	if errors.Is(err, gcds.ErrNoSuchEntity) {
		return store.ErrNoSuchEntity
	}
	if err != nil {
		return err
	}
	return dst.Decode(rec.Data)
}

// GetAll runs query and decodes matching entities into dst, a pointer
// to a slice of the concrete entity type (e.g. *[]model.Channel).
func (s *Store) GetAll(ctx context.Context, query store.Query, dst interface{}) ([]*store.Key, error) {
	q, ok := query.(*Query)
	if !ok {
		return nil, errors.New("clouddatastore: expected *Query")
	}

	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return nil, errors.New("clouddatastore: dst must be a pointer to a slice")
	}
	sliceVal := dv.Elem()
	elemType := sliceVal.Type().Elem()
	out := reflect.MakeSlice(sliceVal.Type(), 0, 0)

	var keys []*store.Key
	it := s.client.Run(ctx, q.query)
	for {
		var rec blobRecord
		k, err := it.Next(&rec)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		elemPtr := reflect.New(elemType)
		ent, ok := elemPtr.Interface().(store.Entity)
		if !ok {
			return nil, store.ErrWrongType
		}
		if err := ent.Decode(rec.Data); err != nil {
			return nil, err
		}
		out = reflect.Append(out, elemPtr.Elem())
		keys = append(keys, fromNative(k))
	}
	sliceVal.Set(out)
	return keys, nil
}

func (s *Store) Create(ctx context.Context, key *store.Key, src store.Entity) error {
	_, err := s.client.RunInTransaction(ctx, func(tx *gcds.Transaction) error {
		var probe blobRecord
		err := tx.Get(toNative(key), &probe)
		if err == nil {
			return store.ErrEntityExists
		}
		if !errors.Is(err, gcds.ErrNoSuchEntity) {
			return err
		}
		_, err = tx.Put(toNative(key), &blobRecord{Data: src.Encode()})
		return err
	})
	return err
}

func (s *Store) Put(ctx context.Context, key *store.Key, src store.Entity) (*store.Key, error) {
	k, err := s.client.Put(ctx, toNative(key), &blobRecord{Data: src.Encode()})
	if err != nil {
		return key, err
	}
	if cache := src.GetCache(); cache != nil {
		cache.Set(key, src)
	}
	return fromNative(k), nil
}

func (s *Store) Update(ctx context.Context, key *store.Key, fn func(store.Entity), dst store.Entity) error {
	_, err := s.client.RunInTransaction(ctx, func(tx *gcds.Transaction) error {
		var rec blobRecord
		err := tx.Get(toNative(key), &rec)
		if errors.Is(err, gcds.ErrNoSuchEntity) {
			return store.ErrNoSuchEntity
		}
		if err != nil {
			return err
		}
		if err := dst.Decode(rec.Data); err != nil {
			return err
		}
		fn(dst)
		_, err = tx.Put(toNative(key), &blobRecord{Data: dst.Encode()})
		return err
	})
	if err != nil {
		return err
	}
	if cache := dst.GetCache(); cache != nil {
		cache.Set(key, dst)
	}
	return nil
}

// BatchPut writes up to store.MaxBatchSize records. Each record is
// written independently so that one failing record does not abort the
// rest (spec: writes in a batch are atomic per-record; partial success
// is allowed).
func (s *Store) BatchPut(ctx context.Context, keys []*store.Key, srcs []store.Entity) []error {
	errs := make([]error, len(keys))
	for i := range keys {
		_, err := s.Put(ctx, keys[i], srcs[i])
		errs[i] = err
	}
	return errs
}

func (s *Store) DeleteMulti(ctx context.Context, keys []*store.Key) error {
	native := make([]*gcds.Key, len(keys))
	for i, k := range keys {
		native[i] = toNative(k)
	}
	err := s.client.DeleteMulti(ctx, native)
	if err != nil {
		return err
	}
	for _, k := range keys {
		invalidate(k)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key *store.Key) error {
	err := s.client.Delete(ctx, toNative(key))
	if err != nil {
		return err
	}
	invalidate(key)
	return nil
}

// invalidate evicts key from its kind's cache, if the kind was
// registered with one. Delete and DeleteMulti only have a key, not an
// entity instance, so cache lookup goes through the kind registry
// rather than Entity.GetCache.
func invalidate(key *store.Key) {
	ent := store.NewEntity(key.Kind)
	if ent == nil {
		return
	}
	if cache := ent.GetCache(); cache != nil {
		cache.Delete(key)
	}
}

// Query implements store.Query for Google Cloud Datastore.
type Query struct {
	query *gcds.Query
}

func (q *Query) Filter(filterStr string, value interface{}) error {
	if value == nil {
		return nil
	}
	q.query = q.query.Filter(filterStr, value)
	return nil
}

func (q *Query) FilterField(fieldName, operator string, value interface{}) error {
	if value == nil {
		return nil
	}
	q.query = q.query.FilterField(fieldName, operator, value)
	return nil
}

func (q *Query) Order(fieldName string) { q.query = q.query.Order(fieldName) }
func (q *Query) Limit(limit int)        { q.query = q.query.Limit(limit) }
func (q *Query) Offset(offset int)      { q.query = q.query.Offset(offset) }
