// Package docstore is the document store abstraction the ledger and the live
// queries are written against. A store holds JSON-like documents grouped in
// collections, answers point and collection queries, lets callers subscribe
// to a query and get the full result again whenever it changes, and offers
// increment and append mutations that can be grouped in an atomic unit.
//
// Backends live in sub packages: badgerstore (embedded), pgstore (PostgreSQL
// with LISTEN/NOTIFY) and firestorestore (Cloud Firestore).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
)

var (
	ErrStoreClosed = errors.New("document store closed")
	ErrInvalidPath = errors.New("invalid document path")
)

// Operations are the mutations and point reads available both on the store
// and inside an atomic unit.
type Operations interface {
	// Get returns the document, with Exists false when it is missing.
	Get(ctx context.Context, ref DocumentRef) (Document, error)

	// Increment adds delta to a decimal field. The document must exist,
	// otherwise common.ErrNotFound is returned.
	Increment(ctx context.Context, ref DocumentRef, field string, delta decimal.Decimal) error

	// Merge upserts the given fields, leaving the other fields untouched.
	Merge(ctx context.Context, ref DocumentRef, fields Fields) error

	// CreateIfAbsent writes the document only when it does not exist yet.
	CreateIfAbsent(ctx context.Context, ref DocumentRef, fields Fields) (created bool, err error)

	// Append creates a new document with a store assigned id.
	Append(ctx context.Context, coll CollectionRef, fields Fields) (string, error)
}

type Store interface {
	Operations

	Query(ctx context.Context, q Query) (Snapshot, error)

	// Subscribe delivers the current result of q and then the full result
	// again every time it changes, until the registration is removed, ctx
	// ends or an error is delivered. Callbacks of one registration never
	// overlap and arrive in store order.
	Subscribe(ctx context.Context, q Query, l Listener) (Registration, error)

	// RunAtomic runs fn so that every mutation made through ops is applied
	// together or not at all. fn may be called more than once when the
	// backend retries a conflicting transaction.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, ops Operations) error) error

	Close() error
}

// Listener receives either a snapshot or the error that ended the
// subscription. No callback follows an error.
type Listener func(Snapshot, error)

// Registration is the handle of a subscription. Remove is idempotent and
// returns once no callback is running. It must not be called from inside the
// subscription's own listener.
type Registration interface {
	Remove()
}

type RegistrationFunc func()

func (f RegistrationFunc) Remove() { f() }

type CollectionRef struct {
	path string
}

func Collection(name string) CollectionRef {
	return CollectionRef{path: name}
}

func (c CollectionRef) Path() string { return c.path }

func (c CollectionRef) Doc(id string) DocumentRef {
	return DocumentRef{Parent: c, ID: id}
}

type DocumentRef struct {
	Parent CollectionRef
	ID     string
}

func (d DocumentRef) Path() string {
	return d.Parent.path + "/" + d.ID
}

// Sub returns a collection nested under the document.
func (d DocumentRef) Sub(name string) CollectionRef {
	return CollectionRef{path: d.Path() + "/" + name}
}

func (d DocumentRef) String() string { return d.Path() }

// ParseDocumentPath turns "accounts/A1/holdings/BTC" back into a reference.
func ParseDocumentPath(p string) (DocumentRef, error) {
	segments := strings.Split(p, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return DocumentRef{}, fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, s := range segments {
		if s == "" {
			return DocumentRef{}, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	i := strings.LastIndex(p, "/")
	return DocumentRef{Parent: CollectionRef{path: p[:i]}, ID: p[i+1:]}, nil
}

type Document struct {
	Ref    DocumentRef
	Fields Fields
	Exists bool
}

type Snapshot struct {
	Query     Query
	Documents []Document
	ReadAt    time.Time
}

// Single returns the document of a point query snapshot.
func (s Snapshot) Single() (Document, bool) {
	for _, d := range s.Documents {
		if d.Exists {
			return d, true
		}
	}
	return Document{}, false
}

// ValidateRef rejects references with empty segments before they reach a
// backend.
func ValidateRef(ref DocumentRef) error {
	if ref.ID == "" || ref.Parent.path == "" || strings.Contains(ref.ID, "/") {
		return fmt.Errorf("%w: %w %q", common.ErrInvalidInput, ErrInvalidPath, ref.Path())
	}
	return nil
}
