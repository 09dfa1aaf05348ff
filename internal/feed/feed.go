// Package feed turns document store queries into typed change feeds. Every
// delivery is the full result of the query, decoded into T.
package feed

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

// Source is the part of docstore.Store a feed needs.
type Source interface {
	Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error)
	Subscribe(ctx context.Context, q docstore.Query, l docstore.Listener) (docstore.Registration, error)
}

type Decoder[T any] func(doc docstore.Document) (T, error)

type Snapshot[T any] struct {
	Items []T
	// Found is false when a document feed points at a missing document.
	// Collection feeds always report true.
	Found  bool
	ReadAt time.Time
}

// Single returns the only item of a document feed.
func (s Snapshot[T]) Single() (T, bool) {
	var zero T
	if !s.Found || len(s.Items) == 0 {
		return zero, false
	}
	return s.Items[0], true
}

type Feed[T any] struct {
	src    Source
	query  docstore.Query
	decode Decoder[T]
}

func New[T any](src Source, q docstore.Query, decode Decoder[T]) *Feed[T] {
	return &Feed[T]{src: src, query: q, decode: decode}
}

func (f *Feed[T]) Query() docstore.Query { return f.query }

// Get runs the query once.
func (f *Feed[T]) Get(ctx context.Context) (Snapshot[T], error) {
	snap, err := f.src.Query(ctx, f.query)
	if err != nil {
		return Snapshot[T]{}, err
	}
	return f.convert(snap)
}

// Subscribe calls fn with every result of the query until the registration
// is removed. Store and decode errors are passed to fn as well. A store
// error also ends the subscription.
func (f *Feed[T]) Subscribe(ctx context.Context, fn func(Snapshot[T], error)) (docstore.Registration, error) {
	return f.src.Subscribe(ctx, f.query, func(snap docstore.Snapshot, err error) {
		if err != nil {
			fn(Snapshot[T]{}, err)
			return
		}
		out, err := f.convert(snap)
		fn(out, err)
	})
}

func (f *Feed[T]) convert(snap docstore.Snapshot) (Snapshot[T], error) {
	out := Snapshot[T]{Found: true, ReadAt: snap.ReadAt}

	if f.query.IsDocument() {
		if _, ok := snap.Single(); !ok {
			out.Found = false
			return out, nil
		}
	}

	out.Items = make([]T, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		if !doc.Exists {
			continue
		}
		item, err := f.decode(doc)
		if err != nil {
			return Snapshot[T]{}, fmt.Errorf("decode %s: %w", doc.Ref.Path(), err)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
