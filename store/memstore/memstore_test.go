package memstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/store"
)

type widget struct {
	Name  string
	Count int
}

func (w *widget) Encode() []byte {
	b, _ := json.Marshal(w)
	return b
}

func (w *widget) Decode(b []byte) error {
	return json.Unmarshal(b, w)
}

func (w *widget) Copy(dst store.Entity) (store.Entity, error) {
	var d *widget
	if dst == nil {
		d = new(widget)
	} else {
		var ok bool
		d, ok = dst.(*widget)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *w
	return d, nil
}

func (w *widget) GetCache() store.Cache { return nil }

func init() {
	store.RegisterEntity("Widget", func() store.Entity { return new(widget) })
}

func TestCreateThenGet(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := s.IDKey("Widget", 1)

	err := s.Create(ctx, key, &widget{Name: "a", Count: 1})
	require.NoError(t, err)

	err = s.Create(ctx, key, &widget{Name: "b", Count: 2})
	assert.ErrorIs(t, err, store.ErrEntityExists)

	var got widget
	require.NoError(t, s.Get(ctx, key, &got))
	assert.Equal(t, "a", got.Name)
}

func TestGetMissing(t *testing.T) {
	s := New()
	var got widget
	err := s.Get(context.Background(), s.IDKey("Widget", 99), &got)
	assert.ErrorIs(t, err, store.ErrNoSuchEntity)
}

func TestUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := s.IDKey("Widget", 1)
	require.NoError(t, s.Create(ctx, key, &widget{Name: "a", Count: 1}))

	var dst widget
	err := s.Update(ctx, key, func(e store.Entity) {
		e.(*widget).Count++
	}, &dst)
	require.NoError(t, err)
	assert.Equal(t, 2, dst.Count)

	var got widget
	require.NoError(t, s.Get(ctx, key, &got))
	assert.Equal(t, 2, got.Count)
}

func TestBatchPutReturnsOneErrorPerRecord(t *testing.T) {
	s := New()
	ctx := context.Background()
	keys := []*store.Key{s.IDKey("Widget", 1), s.IDKey("Widget", 2)}
	srcs := []store.Entity{&widget{Name: "a"}, &widget{Name: "b"}}

	errs := s.BatchPut(ctx, keys, srcs)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestGetAllFilterOrderLimit(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, name := range []string{"c", "a", "b"} {
		_, err := s.Put(ctx, s.IncompleteKey("Widget"), &widget{Name: name, Count: i})
		require.NoError(t, err)
	}

	q := s.NewQuery("Widget", false)
	q.Order("Name")
	q.Limit(2)

	var out []widget
	keys, err := s.GetAll(ctx, q, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, keys, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "b", out[1].Name)
}

func TestDeleteRemovesEntity(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := s.IDKey("Widget", 1)
	require.NoError(t, s.Create(ctx, key, &widget{Name: "a"}))
	require.NoError(t, s.Delete(ctx, key))

	var got widget
	err := s.Get(ctx, key, &got)
	assert.ErrorIs(t, err, store.ErrNoSuchEntity)
}
