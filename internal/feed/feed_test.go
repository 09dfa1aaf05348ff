package feed

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore/badgerstore"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	m.Run()
}

type named struct {
	ID   string
	Name string
}

func decodeNamed(doc docstore.Document) (named, error) {
	if doc.Fields.String("name") == "bad" {
		return named{}, errors.New("bad name")
	}
	return named{ID: doc.Ref.ID, Name: doc.Fields.String("name")}, nil
}

func newStore(t *testing.T) *badgerstore.Store {
	s, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFeed_GetDocument(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ref := docstore.Collection("accounts").Doc("A1")
	f := New(s, docstore.DocumentQuery(ref), decodeNamed)

	snap, err := f.Get(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Found)
	_, ok := snap.Single()
	assert.False(t, ok)

	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"name": "Alice"}))

	snap, err = f.Get(ctx)
	require.NoError(t, err)
	got, ok := snap.Single()
	require.True(t, ok)
	assert.Equal(t, named{ID: "A1", Name: "Alice"}, got)
}

func TestFeed_GetCollection(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	coll := docstore.Collection("accounts")
	f := New(s, docstore.CollectionQuery(coll), decodeNamed)

	snap, err := f.Get(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Found)
	assert.Empty(t, snap.Items)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Merge(ctx, coll.Doc("A"+strconv.Itoa(i)), docstore.Fields{"name": "n"}))
	}
	snap, err = f.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 3)
}

func TestFeed_DecodeErrorIsReported(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ref := docstore.Collection("accounts").Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"name": "bad"}))

	_, err := New(s, docstore.DocumentQuery(ref), decodeNamed).Get(ctx)
	assert.ErrorContains(t, err, "bad name")
}

func TestFeed_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ref := docstore.Collection("accounts").Doc("A1")
	f := New(s, docstore.DocumentQuery(ref), decodeNamed)

	type result struct {
		snap Snapshot[named]
		err  error
	}
	ch := make(chan result, 8)
	reg, err := f.Subscribe(ctx, func(snap Snapshot[named], err error) {
		ch <- result{snap, err}
	})
	require.NoError(t, err)
	defer reg.Remove()

	next := func() result {
		select {
		case r := <-ch:
			return r
		case <-time.After(2 * time.Second):
			t.Fatal("no delivery")
			return result{}
		}
	}

	first := next()
	require.NoError(t, first.err)
	assert.False(t, first.snap.Found)

	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"name": "Alice"}))
	second := next()
	require.NoError(t, second.err)
	got, ok := second.snap.Single()
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Name)

	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"name": "bad"}))
	third := next()
	assert.Error(t, third.err)
}
