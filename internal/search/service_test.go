package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopsage/crawler/internal/index"
	"github.com/shopsage/crawler/internal/snapshot"
	"github.com/shopsage/crawler/internal/snapshot/memory"
)

func seedStore(t *testing.T, idx index.Index) snapshot.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Put(context.Background(), "shop.test", snapshot.Snapshot{Index: idx}))
	return store
}

func TestSearch_ReturnsPostings(t *testing.T) {
	t.Parallel()

	store := seedStore(t, index.Index{
		"walnut": {
			{URL: "https://shop.test/desk", Count: 3},
			{URL: "https://shop.test/chair", Count: 1},
		},
	})
	svc := New(store)

	postings, err := svc.Search(context.Background(), "shop.test", "walnut")
	require.NoError(t, err)
	require.Equal(t, []index.Posting{
		{URL: "https://shop.test/desk", Count: 3},
		{URL: "https://shop.test/chair", Count: 1},
	}, postings)
}

func TestSearch_NormalizesTermAndSiteKey(t *testing.T) {
	t.Parallel()

	store := seedStore(t, index.Index{"walnut": {{URL: "https://shop.test/desk", Count: 2}}})
	svc := New(store)

	postings, err := svc.Search(context.Background(), "https://www.shop.test/page", "  WALNUT ")
	require.NoError(t, err)
	require.Len(t, postings, 1)
}

func TestSearch_EmptyTermReturnsNothing(t *testing.T) {
	t.Parallel()

	svc := New(seedStore(t, index.Index{"walnut": {{URL: "https://shop.test/desk", Count: 1}}}))

	postings, err := svc.Search(context.Background(), "shop.test", "   ")
	require.NoError(t, err)
	require.Empty(t, postings)
}

func TestSearch_UnknownTermReturnsNothing(t *testing.T) {
	t.Parallel()

	svc := New(seedStore(t, index.Index{"walnut": {{URL: "https://shop.test/desk", Count: 1}}}))

	postings, err := svc.Search(context.Background(), "shop.test", "mahogany")
	require.NoError(t, err)
	require.Empty(t, postings)
}

func TestSearch_MissingSnapshotReturnsNothing(t *testing.T) {
	t.Parallel()

	svc := New(memory.New())

	postings, err := svc.Search(context.Background(), "nobody.test", "walnut")
	require.NoError(t, err)
	require.Empty(t, postings)
}

func TestSearch_CapsResults(t *testing.T) {
	t.Parallel()

	var postings []index.Posting
	for i := 0; i < MaxResults+10; i++ {
		postings = append(postings, index.Posting{
			URL:   fmt.Sprintf("https://shop.test/p%d", i),
			Count: MaxResults + 10 - i,
		})
	}
	svc := New(seedStore(t, index.Index{"lamp": postings}))

	got, err := svc.Search(context.Background(), "shop.test", "lamp")
	require.NoError(t, err)
	require.Len(t, got, MaxResults)
	require.Equal(t, "https://shop.test/p0", got[0].URL)
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, snapshot.Snapshot) error { return nil }
func (failingStore) Get(context.Context, string) (*snapshot.Snapshot, error) {
	return nil, errors.New("store offline")
}
func (failingStore) Keys(context.Context) ([]string, error) { return nil, nil }

func TestSearch_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	svc := New(failingStore{})
	_, err := svc.Search(context.Background(), "shop.test", "walnut")
	require.Error(t, err)
}
