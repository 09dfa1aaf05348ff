// Package pgstore keeps documents in a single PostgreSQL table with a jsonb
// body. Writes send a pg_notify with the document path. A lib/pq listener
// turns those notifications into live query refreshes, so writers in other
// processes are observed as well.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/idgenerator"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

const (
	tableDocuments = "documents"

	// NotifyChannel carries the path of every written document.
	NotifyChannel = "docstore_changes"

	Schema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	db       *sql.DB
	hub      *docstore.Hub
	ids      idgenerator.Generator
	listener *pq.Listener

	stop chan struct{}
	done chan struct{}
}

var _ docstore.Store = (*Store)(nil)

type Option func(s *Store)

// WithListener makes the store refresh live queries from LISTEN
// notifications instead of only from its own writes.
func WithListener(l *pq.Listener) Option {
	return func(s *Store) { s.listener = l }
}

func WithIDGenerator(g idgenerator.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// New wraps an open database. The caller keeps ownership of db.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:   db,
		ids:  idgenerator.New(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = docstore.NewHub(s.Query)

	if s.listener != nil {
		go s.listen()
	} else {
		close(s.done)
	}

	return s
}

// NewListener opens a LISTEN connection on NotifyChannel.
func NewListener(ctx context.Context, dsn string) (*pq.Listener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			xlog.Warn(ctx, "[DOCSTORE.PG.LISTENER]", xlog.Int("event", int(ev)), xlog.Err(err))
		}
	})
	if err := l.Listen(NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return l, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *Store) listen() {
	defer close(s.done)
	ctx := context.Background()

	for {
		select {
		case n := <-s.listener.Notify:
			if n == nil {
				// connection was re-established, notifications may be lost
				s.hub.PublishAll()
				continue
			}
			ref, err := docstore.ParseDocumentPath(n.Extra)
			if err != nil {
				xlog.Warn(ctx, "[DOCSTORE.PG.NOTIFY] invalid payload", xlog.String("payload", n.Extra), xlog.Err(err))
				continue
			}
			s.hub.Publish(ref)
		case <-time.After(90 * time.Second):
			go func() { _ = s.listener.Ping() }()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) Close() error {
	close(s.stop)
	<-s.done
	s.hub.Close()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, l docstore.Listener) (docstore.Registration, error) {
	return s.hub.Subscribe(ctx, q, l)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	snap := docstore.Snapshot{Query: q}

	if q.IsDocument() {
		doc, err := s.Get(ctx, q.Document())
		if err != nil {
			return docstore.Snapshot{}, err
		}
		snap.Documents = []docstore.Document{doc}
		snap.ReadAt = time.Now()
		return snap, nil
	}

	builder := psql.Select("id", "data").
		From(tableDocuments).
		Where(sq.Eq{"collection": q.Collection.Path()}).
		OrderBy("id")
	for _, f := range q.Filters {
		cond, err := containment(f)
		if err != nil {
			return docstore.Snapshot{}, err
		}
		builder = builder.Where(sq.Expr("data @> ?::jsonb", cond))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return docstore.Snapshot{}, err
	}

	rows, err := s.runner(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("query %s: %w", q, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return docstore.Snapshot{}, err
		}
		doc, err := decode(q.Collection.Doc(id), raw)
		if err != nil {
			return docstore.Snapshot{}, err
		}
		snap.Documents = append(snap.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return docstore.Snapshot{}, err
	}

	snap.ReadAt = time.Now()
	return snap, nil
}

// containment renders a filter as a jsonb document for the @> operator.
// Equality is {"field": value}, array membership is {"field": [value]}.
func containment(f docstore.Filter) (string, error) {
	var body map[string]any
	switch f.Op {
	case docstore.OpEqual:
		body = map[string]any{f.Field: f.Value}
	case docstore.OpArrayContains:
		body = map[string]any{f.Field: []any{f.Value}}
	default:
		return "", fmt.Errorf("%w: unsupported operator %q", common.ErrInvalidInput, f.Op)
	}
	raw, err := json.Marshal(body)
	return string(raw), err
}

func decode(ref docstore.DocumentRef, raw []byte) (docstore.Document, error) {
	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("failed to decode %s: %w", ref.Path(), err)
	}
	return docstore.Document{Ref: ref, Fields: fields, Exists: true}, nil
}

func (s *Store) Get(ctx context.Context, ref docstore.DocumentRef) (docstore.Document, error) {
	query, args, err := psql.Select("data").
		From(tableDocuments).
		Where(sq.Eq{"collection": ref.Parent.Path(), "id": ref.ID}).
		ToSql()
	if err != nil {
		return docstore.Document{}, err
	}

	var raw []byte
	err = s.runner(ctx).QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{Ref: ref}, nil
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return decode(ref, raw)
}

func (s *Store) Increment(ctx context.Context, ref docstore.DocumentRef, field string, delta decimal.Decimal) error {
	if err := docstore.ValidateRef(ref); err != nil {
		return err
	}

	query, args, err := psql.Update(tableDocuments).
		Set("data", sq.Expr(
			"jsonb_set(data, ARRAY[?::text], to_jsonb((COALESCE((data->>?)::numeric, 0) + ?::numeric)::text), true)",
			field, field, delta.String())).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"collection": ref.Parent.Path(), "id": ref.ID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.runner(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mutationError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, ref.Path())
	}

	return s.written(ctx, ref)
}

func (s *Store) Merge(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := docstore.ValidateRef(ref); err != nil {
		return err
	}
	raw, err := json.Marshal(docstore.Normalize(fields))
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(tableDocuments).
		Columns("collection", "id", "data").
		Values(ref.Parent.Path(), ref.ID, string(raw)).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.runner(ctx).ExecContext(ctx, query, args...); err != nil {
		return mutationError(err)
	}
	return s.written(ctx, ref)
}

func (s *Store) CreateIfAbsent(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) (bool, error) {
	if err := docstore.ValidateRef(ref); err != nil {
		return false, err
	}
	raw, err := json.Marshal(docstore.Normalize(fields))
	if err != nil {
		return false, err
	}

	query, args, err := psql.Insert(tableDocuments).
		Columns("collection", "id", "data").
		Values(ref.Parent.Path(), ref.ID, string(raw)).
		Suffix("ON CONFLICT (collection, id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := s.runner(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, mutationError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	return true, s.written(ctx, ref)
}

func (s *Store) Append(ctx context.Context, coll docstore.CollectionRef, fields docstore.Fields) (string, error) {
	ref := coll.Doc(s.ids.Generate())
	raw, err := json.Marshal(docstore.Normalize(fields))
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert(tableDocuments).
		Columns("collection", "id", "data").
		Values(ref.Parent.Path(), ref.ID, string(raw)).
		ToSql()
	if err != nil {
		return "", err
	}

	if _, err := s.runner(ctx).ExecContext(ctx, query, args...); err != nil {
		return "", mutationError(err)
	}
	return ref.ID, s.written(ctx, ref)
}

// mutationError maps serialization and lock failures to ErrMutationConflict.
func mutationError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %w", common.ErrMutationConflict, err)
		}
	}
	return err
}

// written announces a change. Inside an atomic unit the notification is
// delivered by postgres at commit, and the local hub is woken after commit.
func (s *Store) written(ctx context.Context, ref docstore.DocumentRef) error {
	if _, err := s.runner(ctx).ExecContext(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, ref.Path()); err != nil {
		return err
	}

	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.changed = append(st.changed, ref)
		return nil
	}
	if s.listener == nil {
		s.hub.Publish(ref)
	}
	return nil
}
