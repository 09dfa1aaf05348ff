package firestorestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

type txKey struct{}

type cachedDoc struct {
	ref    docstore.DocumentRef
	fields docstore.Fields
	exists bool
	dirty  bool
	// created by Append, never read
	fresh bool
}

// txOps buffers writes until the transaction function returns, because
// Firestore rejects reads issued after a write in the same transaction.
// Reads of documents already touched are served from the buffer.
type txOps struct {
	store *Store
	tx    *firestore.Transaction
	docs  map[string]*cachedDoc
	order []string
}

var _ docstore.Operations = (*txOps)(nil)

func newTxOps(s *Store, tx *firestore.Transaction) *txOps {
	return &txOps{store: s, tx: tx, docs: make(map[string]*cachedDoc)}
}

func (o *txOps) load(ref docstore.DocumentRef) (*cachedDoc, error) {
	if err := docstore.ValidateRef(ref); err != nil {
		return nil, err
	}
	if d, ok := o.docs[ref.Path()]; ok {
		return d, nil
	}

	snap, err := o.tx.Get(o.store.doc(ref))
	doc, err := fromSnapshot(ref, snap, err)
	if err != nil {
		return nil, err
	}

	d := &cachedDoc{ref: ref, fields: doc.Fields, exists: doc.Exists}
	if d.fields == nil {
		d.fields = docstore.Fields{}
	}
	o.docs[ref.Path()] = d
	return d, nil
}

func (o *txOps) markDirty(d *cachedDoc) {
	if !d.dirty {
		d.dirty = true
		o.order = append(o.order, d.ref.Path())
	}
}

func (o *txOps) flush() error {
	for _, path := range o.order {
		d := o.docs[path]
		ref := o.store.doc(d.ref)

		var err error
		if d.fresh {
			err = o.tx.Create(ref, toData(d.fields))
		} else {
			err = o.tx.Set(ref, toData(d.fields))
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func (o *txOps) Get(_ context.Context, ref docstore.DocumentRef) (docstore.Document, error) {
	d, err := o.load(ref)
	if err != nil {
		return docstore.Document{}, err
	}
	if !d.exists {
		return docstore.Document{Ref: ref}, nil
	}
	return docstore.Document{Ref: ref, Fields: d.fields.Clone(), Exists: true}, nil
}

func (o *txOps) Increment(_ context.Context, ref docstore.DocumentRef, field string, delta decimal.Decimal) error {
	d, err := o.load(ref)
	if err != nil {
		return err
	}
	if !d.exists {
		return fmt.Errorf("%w: %s", common.ErrNotFound, ref.Path())
	}
	fields, err := docstore.ApplyIncrement(d.fields, field, delta)
	if err != nil {
		return err
	}
	d.fields = fields
	o.markDirty(d)
	return nil
}

func (o *txOps) Merge(_ context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	d, err := o.load(ref)
	if err != nil {
		return err
	}
	merged := d.fields.Clone()
	for k, v := range docstore.Normalize(fields) {
		merged[k] = v
	}
	d.fields = merged
	d.exists = true
	o.markDirty(d)
	return nil
}

func (o *txOps) CreateIfAbsent(_ context.Context, ref docstore.DocumentRef, fields docstore.Fields) (bool, error) {
	d, err := o.load(ref)
	if err != nil {
		return false, err
	}
	if d.exists {
		return false, nil
	}
	d.fields = docstore.Normalize(fields)
	d.exists = true
	o.markDirty(d)
	return true, nil
}

func (o *txOps) Append(_ context.Context, coll docstore.CollectionRef, fields docstore.Fields) (string, error) {
	ref := coll.Doc(o.store.ids.Generate())
	d := &cachedDoc{ref: ref, fields: docstore.Normalize(fields), exists: true, fresh: true}
	o.docs[ref.Path()] = d
	o.markDirty(d)
	return ref.ID, nil
}
