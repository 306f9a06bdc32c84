// Package search answers single-term queries against stored snapshots.
package search

import (
	"context"
	"fmt"

	"github.com/shopsage/crawler/internal/index"
	"github.com/shopsage/crawler/internal/snapshot"
)

// MaxResults caps the postings returned per query.
const MaxResults = 20

// Service looks up postings for a normalized term in a site's snapshot.
type Service struct {
	store snapshot.Store
}

// New constructs a Service over the given store.
func New(store snapshot.Store) *Service {
	return &Service{store: store}
}

// Search returns the postings for term in the site's index, capped at
// MaxResults. A missing snapshot or unknown term yields an empty result,
// never an error; only backend read failures propagate.
func (s *Service) Search(ctx context.Context, siteKey, term string) ([]index.Posting, error) {
	normalized := index.NormalizeTerm(term)
	if normalized == "" {
		return nil, nil
	}

	snap, err := s.store.Get(ctx, snapshot.SiteKey(siteKey))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil || snap.Index == nil {
		return nil, nil
	}

	postings := snap.Index[normalized]
	if len(postings) > MaxResults {
		postings = postings[:MaxResults]
	}
	out := make([]index.Posting, len(postings))
	copy(out, postings)
	return out, nil
}
