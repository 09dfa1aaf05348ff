// Package docstoretest holds the behaviour every docstore backend must share.
// Backend packages call Run from their tests.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) docstore.Store

func Run(t *testing.T, newStore Factory) {
	tests := map[string]func(t *testing.T, s docstore.Store){
		"GetMissing":                   testGetMissing,
		"MergeAndGet":                  testMergeAndGet,
		"IncrementRequiresDocument":    testIncrementRequiresDocument,
		"ConcurrentIncrements":         testConcurrentIncrements,
		"CreateIfAbsent":               testCreateIfAbsent,
		"AppendAndQuery":               testAppendAndQuery,
		"QueryFilters":                 testQueryFilters,
		"NestedCollectionsAreSeparate": testNestedCollections,
		"AtomicRollback":               testAtomicRollback,
		"AtomicCommit":                 testAtomicCommit,
		"SubscribeDocument":            testSubscribeDocument,
		"SubscribeCollection":          testSubscribeCollection,
		"RemoveStopsDelivery":          testRemoveStopsDelivery,
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

var (
	accounts = docstore.Collection("accounts")
	ctx      = context.Background()
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balanceOf(t *testing.T, s docstore.Store, ref docstore.DocumentRef) decimal.Decimal {
	t.Helper()
	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, doc.Exists)
	d, err := doc.Fields.Decimal("balance")
	require.NoError(t, err)
	return d
}

func testGetMissing(t *testing.T, s docstore.Store) {
	doc, err := s.Get(ctx, accounts.Doc("nope"))
	require.NoError(t, err)
	assert.False(t, doc.Exists)

	snap, err := s.Query(ctx, docstore.DocumentQuery(accounts.Doc("nope")))
	require.NoError(t, err)
	_, found := snap.Single()
	assert.False(t, found)
}

func testMergeAndGet(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"name": "Alice", "balance": "0"}))
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"profilePicRef": "pic"}))

	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, doc.Exists)
	assert.Equal(t, "Alice", doc.Fields.String("name"))
	assert.Equal(t, "pic", doc.Fields.String("profilePicRef"))
	assert.True(t, balanceOf(t, s, ref).IsZero())
}

func testIncrementRequiresDocument(t *testing.T, s docstore.Store) {
	err := s.Increment(ctx, accounts.Doc("ghost"), "balance", dec("1"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testConcurrentIncrements(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"balance": "0"}))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := dec("0.1")
			if i%2 == 1 {
				delta = dec("-0.05")
			}
			errs <- s.Increment(ctx, ref, "balance", delta)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 10 * 0.1 - 10 * 0.05
	assert.True(t, balanceOf(t, s, ref).Equal(dec("0.5")), "balance %s", balanceOf(t, s, ref))
}

func testCreateIfAbsent(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1").Sub("holdings").Doc("BTC")

	created, err := s.CreateIfAbsent(ctx, ref, docstore.Fields{"instrumentId": "BTC", "quantity": "0"})
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, s.Increment(ctx, ref, "quantity", dec("0.01")))

	created, err = s.CreateIfAbsent(ctx, ref, docstore.Fields{"instrumentId": "BTC", "quantity": "0"})
	require.NoError(t, err)
	assert.False(t, created)

	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	q, err := doc.Fields.Decimal("quantity")
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("0.01")))
}

func testAppendAndQuery(t *testing.T, s docstore.Store) {
	coll := docstore.Collection("transactions")
	id1, err := s.Append(ctx, coll, docstore.Fields{"accountId": "A1", "amount": "100"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	id2, err := s.Append(ctx, coll, docstore.Fields{"accountId": "A1", "amount": "30"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	snap, err := s.Query(ctx, docstore.CollectionQuery(coll))
	require.NoError(t, err)
	require.Len(t, snap.Documents, 2)
	ids := []string{snap.Documents[0].Ref.ID, snap.Documents[1].Ref.ID}
	assert.ElementsMatch(t, []string{id1, id2}, ids)
}

func testQueryFilters(t *testing.T, s docstore.Store) {
	instruments := docstore.Collection("instruments")
	require.NoError(t, s.Merge(ctx, instruments.Doc("BTC"), docstore.Fields{"shortCode": "BTC", "accountIds": []string{"A1", "A2"}}))
	require.NoError(t, s.Merge(ctx, instruments.Doc("ETH"), docstore.Fields{"shortCode": "ETH", "accountIds": []string{"A2"}}))

	snap, err := s.Query(ctx, docstore.CollectionQuery(instruments, docstore.Where("accountIds", docstore.OpArrayContains, "A1")))
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "BTC", snap.Documents[0].Ref.ID)

	snap, err = s.Query(ctx, docstore.CollectionQuery(instruments, docstore.Where("shortCode", docstore.OpEqual, "ETH")))
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "ETH", snap.Documents[0].Ref.ID)
}

func testNestedCollections(t *testing.T, s docstore.Store) {
	a1 := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, a1, docstore.Fields{"balance": "0"}))
	require.NoError(t, s.Merge(ctx, a1.Sub("holdings").Doc("BTC"), docstore.Fields{"quantity": "1"}))

	snap, err := s.Query(ctx, docstore.CollectionQuery(accounts))
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "A1", snap.Documents[0].Ref.ID)

	snap, err = s.Query(ctx, docstore.CollectionQuery(a1.Sub("holdings")))
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "BTC", snap.Documents[0].Ref.ID)
}

func testAtomicRollback(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"balance": "10"}))

	boom := errors.New("boom")
	err := s.RunAtomic(ctx, func(ctx context.Context, ops docstore.Operations) error {
		if _, err := ops.Get(ctx, ref); err != nil {
			return err
		}
		if err := ops.Increment(ctx, ref, "balance", dec("5")); err != nil {
			return err
		}
		if _, err := ops.Append(ctx, docstore.Collection("transactions"), docstore.Fields{"accountId": "A1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.True(t, balanceOf(t, s, ref).Equal(dec("10")))
	snap, err := s.Query(ctx, docstore.CollectionQuery(docstore.Collection("transactions")))
	require.NoError(t, err)
	assert.Empty(t, snap.Documents)
}

func testAtomicCommit(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"balance": "10"}))

	var id string
	err := s.RunAtomic(ctx, func(ctx context.Context, ops docstore.Operations) error {
		if _, err := ops.Get(ctx, ref); err != nil {
			return err
		}
		if err := ops.Increment(ctx, ref, "balance", dec("-2.5")); err != nil {
			return err
		}
		if err := ops.Increment(ctx, ref, "balance", dec("1")); err != nil {
			return err
		}
		var err error
		id, err = ops.Append(ctx, docstore.Collection("transactions"), docstore.Fields{"accountId": "A1"})
		return err
	})
	require.NoError(t, err)

	assert.True(t, balanceOf(t, s, ref).Equal(dec("8.5")))
	doc, err := s.Get(ctx, docstore.Collection("transactions").Doc(id))
	require.NoError(t, err)
	assert.True(t, doc.Exists)
}

func waitSnapshot(t *testing.T, ch <-chan docstore.Snapshot, cond func(docstore.Snapshot) bool) docstore.Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return docstore.Snapshot{}
		}
	}
}

func testSubscribeDocument(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"balance": "0"}))

	got := make(chan docstore.Snapshot, 16)
	reg, err := s.Subscribe(ctx, docstore.DocumentQuery(ref), func(snap docstore.Snapshot, err error) {
		if err != nil {
			t.Errorf("unexpected feed error: %v", err)
			return
		}
		got <- snap
	})
	require.NoError(t, err)
	defer reg.Remove()

	waitSnapshot(t, got, func(s docstore.Snapshot) bool {
		_, ok := s.Single()
		return ok
	})

	require.NoError(t, s.Increment(ctx, ref, "balance", dec("100")))

	waitSnapshot(t, got, func(s docstore.Snapshot) bool {
		doc, ok := s.Single()
		if !ok {
			return false
		}
		b, _ := doc.Fields.Decimal("balance")
		return b.Equal(dec("100"))
	})
}

func testSubscribeCollection(t *testing.T, s docstore.Store) {
	coll := docstore.Collection("transactions")
	q := docstore.CollectionQuery(coll, docstore.Where("accountId", docstore.OpEqual, "A1"))

	got := make(chan docstore.Snapshot, 16)
	reg, err := s.Subscribe(ctx, q, func(snap docstore.Snapshot, err error) {
		if err != nil {
			t.Errorf("unexpected feed error: %v", err)
			return
		}
		got <- snap
	})
	require.NoError(t, err)
	defer reg.Remove()

	waitSnapshot(t, got, func(s docstore.Snapshot) bool { return len(s.Documents) == 0 })

	_, err = s.Append(ctx, coll, docstore.Fields{"accountId": "A2"})
	require.NoError(t, err)
	_, err = s.Append(ctx, coll, docstore.Fields{"accountId": "A1"})
	require.NoError(t, err)

	snap := waitSnapshot(t, got, func(s docstore.Snapshot) bool { return len(s.Documents) == 1 })
	assert.Equal(t, "A1", snap.Documents[0].Fields.String("accountId"))
}

func testRemoveStopsDelivery(t *testing.T, s docstore.Store) {
	ref := accounts.Doc("A1")
	require.NoError(t, s.Merge(ctx, ref, docstore.Fields{"balance": "0"}))

	var (
		mu    sync.Mutex
		calls int
	)
	first := make(chan struct{})
	reg, err := s.Subscribe(ctx, docstore.DocumentQuery(ref), func(docstore.Snapshot, error) {
		mu.Lock()
		calls++
		if calls == 1 {
			close(first)
		}
		mu.Unlock()
	})
	require.NoError(t, err)

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}
	reg.Remove()
	reg.Remove()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Increment(ctx, ref, "balance", dec(fmt.Sprint(i+1))))
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
