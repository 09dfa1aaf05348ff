// Package firestorestore maps the document model onto Cloud Firestore.
// Collection paths are used as-is, live queries are native snapshot
// listeners and atomic units are Firestore transactions.
package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/idgenerator"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

type Store struct {
	client *firestore.Client
	ids    idgenerator.Generator

	mu     sync.Mutex
	subs   map[uint64]context.CancelFunc
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

var _ docstore.Store = (*Store)(nil)

type Option func(s *Store)

func WithIDGenerator(g idgenerator.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// Open connects to the configured database. FIRESTORE_EMULATOR_HOST is
// honoured by the client library.
func Open(ctx context.Context, cfg config.Firestore, opts ...Option) (*Store, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, databaseID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return New(client, opts...), nil
}

func New(client *firestore.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		ids:    idgenerator.New(),
		subs:   make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) doc(ref docstore.DocumentRef) *firestore.DocumentRef {
	return s.client.Doc(ref.Path())
}

func (s *Store) query(q docstore.Query) firestore.Query {
	fq := s.client.Collection(q.Collection.Path()).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, string(f.Op), toValue(f.Value))
	}
	return fq.OrderBy(firestore.DocumentID, firestore.Asc)
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, cancel := range s.subs {
		cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, ref docstore.DocumentRef) (docstore.Document, error) {
	if err := docstore.ValidateRef(ref); err != nil {
		return docstore.Document{}, err
	}
	snap, err := s.doc(ref).Get(ctx)
	return fromSnapshot(ref, snap, err)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	if q.IsDocument() {
		doc, err := s.Get(ctx, q.Document())
		if err != nil {
			return docstore.Snapshot{}, err
		}
		return docstore.Snapshot{Query: q, Documents: []docstore.Document{doc}, ReadAt: time.Now()}, nil
	}

	snaps, err := s.query(q).Documents(ctx).GetAll()
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("query %s: %w", q, err)
	}
	return collectionSnapshot(q, snaps, time.Now()), nil
}

func collectionSnapshot(q docstore.Query, snaps []*firestore.DocumentSnapshot, readAt time.Time) docstore.Snapshot {
	out := docstore.Snapshot{Query: q, ReadAt: readAt}
	for _, ds := range snaps {
		out.Documents = append(out.Documents, docstore.Document{
			Ref:    q.Collection.Doc(ds.Ref.ID),
			Fields: fromData(ds.Data()),
			Exists: true,
		})
	}
	return out
}

func fromSnapshot(ref docstore.DocumentRef, snap *firestore.DocumentSnapshot, err error) (docstore.Document, error) {
	if status.Code(err) == codes.NotFound {
		return docstore.Document{Ref: ref}, nil
	}
	if err != nil {
		return docstore.Document{}, err
	}
	if snap == nil || !snap.Exists() {
		return docstore.Document{Ref: ref}, nil
	}
	return docstore.Document{Ref: ref, Fields: fromData(snap.Data()), Exists: true}, nil
}

// Subscribe attaches a snapshot listener. The listener is called from a
// dedicated goroutine and never after Remove returns.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, l docstore.Listener) (docstore.Registration, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, docstore.ErrStoreClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	id := s.nextID
	s.nextID++
	s.subs[id] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer close(done)
		defer s.forget(id)

		if q.IsDocument() {
			s.watchDocument(ctx, q, l)
		} else {
			s.watchCollection(ctx, q, l)
		}
	}()

	return docstore.RegistrationFunc(func() {
		cancel()
		<-done
	}), nil
}

func (s *Store) forget(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.subs[id]; ok {
		cancel()
		delete(s.subs, id)
	}
}

func (s *Store) watchDocument(ctx context.Context, q docstore.Query, l docstore.Listener) {
	ref := q.Document()
	it := s.doc(ref).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if ctx.Err() != nil {
			return
		}
		doc, err := fromSnapshot(ref, snap, err)
		if err != nil {
			l(docstore.Snapshot{}, err)
			return
		}
		readAt := time.Now()
		if snap != nil && !snap.ReadTime.IsZero() {
			readAt = snap.ReadTime
		}
		l(docstore.Snapshot{Query: q, Documents: []docstore.Document{doc}, ReadAt: readAt}, nil)
	}
}

func (s *Store) watchCollection(ctx context.Context, q docstore.Query, l docstore.Listener) {
	it := s.query(q).Snapshots(ctx)
	defer it.Stop()

	for {
		qs, err := it.Next()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l(docstore.Snapshot{}, err)
			return
		}
		snaps, err := drain(qs.Documents)
		if err != nil {
			l(docstore.Snapshot{}, err)
			return
		}
		l(collectionSnapshot(q, snaps, qs.ReadTime), nil)
	}
}

func drain(it *firestore.DocumentIterator) ([]*firestore.DocumentSnapshot, error) {
	defer it.Stop()

	var out []*firestore.DocumentSnapshot
	for {
		ds, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, ops docstore.Operations) error) error {
	if ops, ok := ctx.Value(txKey{}).(*txOps); ok {
		return fn(ctx, ops)
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ops := newTxOps(s, tx)
		if err := fn(context.WithValue(ctx, txKey{}, ops), ops); err != nil {
			return err
		}
		return ops.flush()
	})
	if status.Code(err) == codes.Aborted {
		return fmt.Errorf("%w: %w", common.ErrMutationConflict, err)
	}
	return err
}

func (s *Store) Increment(ctx context.Context, ref docstore.DocumentRef, field string, delta decimal.Decimal) error {
	return s.RunAtomic(ctx, func(ctx context.Context, ops docstore.Operations) error {
		return ops.Increment(ctx, ref, field, delta)
	})
}

func (s *Store) Merge(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := docstore.ValidateRef(ref); err != nil {
		return err
	}
	_, err := s.doc(ref).Set(ctx, toData(fields), firestore.MergeAll)
	return err
}

func (s *Store) CreateIfAbsent(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) (bool, error) {
	if err := docstore.ValidateRef(ref); err != nil {
		return false, err
	}
	_, err := s.doc(ref).Create(ctx, toData(fields))
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Append(ctx context.Context, coll docstore.CollectionRef, fields docstore.Fields) (string, error) {
	id := s.ids.Generate()
	if _, err := s.doc(coll.Doc(id)).Create(ctx, toData(fields)); err != nil {
		return "", err
	}
	return id, nil
}
