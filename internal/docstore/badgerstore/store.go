// Package badgerstore is an embedded document store on top of badger. It is
// meant for local runs and tests: live queries are served by an in-process
// hub, so only writers in the same process are observed.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/idgenerator"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

const keyPrefix = "d/"

type Store struct {
	db  *badger.DB
	hub *docstore.Hub
	ids idgenerator.Generator

	maxConflictRetries uint64
}

var _ docstore.Store = (*Store)(nil)

type Option func(s *Store)

func WithIDGenerator(g idgenerator.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithMaxConflictRetries bounds how often a transaction that lost a write
// conflict is replayed before the store gives up with ErrMutationConflict.
func WithMaxConflictRetries(n uint64) Option {
	return func(s *Store) { s.maxConflictRetries = n }
}

func Open(cfg config.Badger, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory || cfg.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &Store{
		db:                 db,
		ids:                idgenerator.New(),
		maxConflictRetries: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = docstore.NewHub(s.Query)

	return s, nil
}

func OpenInMemory(opts ...Option) (*Store, error) {
	return Open(config.Badger{InMemory: true}, opts...)
}

func docKey(ref docstore.DocumentRef) []byte {
	return []byte(keyPrefix + ref.Path())
}

func collectionPrefix(c docstore.CollectionRef) []byte {
	return []byte(keyPrefix + c.Path() + "/")
}

func decode(ref docstore.DocumentRef, raw []byte) (docstore.Document, error) {
	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("failed to decode %s: %w", ref.Path(), err)
	}
	return docstore.Document{Ref: ref, Fields: fields, Exists: true}, nil
}

func getDoc(txn *badger.Txn, ref docstore.DocumentRef) (docstore.Document, error) {
	item, err := txn.Get(docKey(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return docstore.Document{Ref: ref}, nil
	}
	if err != nil {
		return docstore.Document{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return docstore.Document{}, err
	}
	return decode(ref, raw)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	snap := docstore.Snapshot{Query: q}
	err := s.db.View(func(txn *badger.Txn) error {
		if q.IsDocument() {
			doc, err := getDoc(txn, q.Document())
			if err != nil {
				return err
			}
			snap.Documents = []docstore.Document{doc}
			return nil
		}

		prefix := collectionPrefix(q.Collection)
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			if strings.Contains(id, "/") {
				// nested collection
				continue
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := decode(q.Collection.Doc(id), raw)
			if err != nil {
				return err
			}
			if q.Matches(doc) {
				snap.Documents = append(snap.Documents, doc)
			}
		}
		return nil
	})
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("query %s: %w", q, err)
	}
	snap.ReadAt = time.Now()
	return snap, nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, l docstore.Listener) (docstore.Registration, error) {
	return s.hub.Subscribe(ctx, q, l)
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, ops docstore.Operations) error) error {
	return s.update(ctx, func(ops *txOps) error {
		return fn(ctx, ops)
	})
}

func (s *Store) Get(ctx context.Context, ref docstore.DocumentRef) (docstore.Document, error) {
	var doc docstore.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = getDoc(txn, ref)
		return err
	})
	return doc, err
}

func (s *Store) Increment(ctx context.Context, ref docstore.DocumentRef, field string, delta decimal.Decimal) error {
	return s.update(ctx, func(ops *txOps) error {
		return ops.Increment(ctx, ref, field, delta)
	})
}

func (s *Store) Merge(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	return s.update(ctx, func(ops *txOps) error {
		return ops.Merge(ctx, ref, fields)
	})
}

func (s *Store) CreateIfAbsent(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) (bool, error) {
	var created bool
	err := s.update(ctx, func(ops *txOps) error {
		var err error
		created, err = ops.CreateIfAbsent(ctx, ref, fields)
		return err
	})
	return created, err
}

func (s *Store) Append(ctx context.Context, coll docstore.CollectionRef, fields docstore.Fields) (string, error) {
	var id string
	err := s.update(ctx, func(ops *txOps) error {
		var err error
		id, err = ops.Append(ctx, coll, fields)
		return err
	})
	return id, err
}

// update runs fn in a read-write transaction, replaying it when badger
// reports a conflict with a concurrent commit. Subscribers are notified only
// after a successful commit.
func (s *Store) update(ctx context.Context, fn func(ops *txOps) error) error {
	var changed []docstore.DocumentRef

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.MaxInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 0

	attempt := func() error {
		ops := &txOps{store: s}
		err := s.db.Update(func(txn *badger.Txn) error {
			ops.txn = txn
			return fn(ops)
		})
		if errors.Is(err, badger.ErrConflict) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		changed = ops.changed
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, s.maxConflictRetries), ctx))
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", common.ErrMutationConflict, err)
	}
	if err != nil {
		return err
	}

	s.hub.Publish(changed...)
	return nil
}

func (s *Store) Close() error {
	s.hub.Close()
	return s.db.Close()
}

type txOps struct {
	store   *Store
	txn     *badger.Txn
	changed []docstore.DocumentRef
}

func (o *txOps) put(ref docstore.DocumentRef, fields docstore.Fields) error {
	raw, err := json.Marshal(docstore.Normalize(fields))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ref.Path(), err)
	}
	if err := o.txn.Set(docKey(ref), raw); err != nil {
		return err
	}
	o.changed = append(o.changed, ref)
	return nil
}

func (o *txOps) Get(_ context.Context, ref docstore.DocumentRef) (docstore.Document, error) {
	return getDoc(o.txn, ref)
}

func (o *txOps) Increment(_ context.Context, ref docstore.DocumentRef, field string, delta decimal.Decimal) error {
	if err := docstore.ValidateRef(ref); err != nil {
		return err
	}
	doc, err := getDoc(o.txn, ref)
	if err != nil {
		return err
	}
	if !doc.Exists {
		return fmt.Errorf("%w: %s", common.ErrNotFound, ref.Path())
	}
	fields, err := docstore.ApplyIncrement(doc.Fields, field, delta)
	if err != nil {
		return err
	}
	return o.put(ref, fields)
}

func (o *txOps) Merge(_ context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := docstore.ValidateRef(ref); err != nil {
		return err
	}
	doc, err := getDoc(o.txn, ref)
	if err != nil {
		return err
	}
	merged := docstore.Fields{}
	if doc.Exists {
		merged = doc.Fields.Clone()
	}
	for k, v := range fields {
		merged[k] = v
	}
	return o.put(ref, merged)
}

func (o *txOps) CreateIfAbsent(_ context.Context, ref docstore.DocumentRef, fields docstore.Fields) (bool, error) {
	if err := docstore.ValidateRef(ref); err != nil {
		return false, err
	}
	doc, err := getDoc(o.txn, ref)
	if err != nil {
		return false, err
	}
	if doc.Exists {
		return false, nil
	}
	return true, o.put(ref, fields)
}

func (o *txOps) Append(_ context.Context, coll docstore.CollectionRef, fields docstore.Fields) (string, error) {
	id := o.store.ids.Generate()
	if err := o.put(coll.Doc(id), fields); err != nil {
		return "", err
	}
	return id, nil
}
