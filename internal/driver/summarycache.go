// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"sync"
)

// SummaryCache derives per-file unlinked summaries and per-library linked
// summaries, serializing them into and out of a ByteStore under
// content-derived keys.
type SummaryCache struct {
	d *Driver
}

func newSummaryCache(d *Driver) *SummaryCache { return &SummaryCache{d: d} }

// getUnlinked returns the UnlinkedSummary for file, from the ByteStore if
// present under H.unlinked (H = file.ContentHash), or by serializing the
// unresolved unit and storing it under that key otherwise.
func (c *SummaryCache) getUnlinked(ctx context.Context, fh *FileHandle) (UnlinkedSummary, error) {
	hash := fh.ContentHash()
	key := unlinkedKey(hash)

	if data, ok := c.d.byteStore.Get(key); ok {
		if summary, err := c.d.serializer.DecodeUnlinked(data); err == nil {
			return summary, nil
		}
		// A malformed blob is treated as a cache miss: fall through and
		// overwrite it.
	}

	unit, err := fh.Unit(ctx)
	if err != nil {
		return UnlinkedSummary{}, err
	}
	uri, err := fh.URI()
	if err != nil {
		return UnlinkedSummary{}, err
	}
	summary, err := c.d.serializer.SerializeUnlinked(uri, unit)
	if err != nil {
		return UnlinkedSummary{}, err
	}
	summary.Hash = hash

	if bytes, err := c.d.serializer.EncodeUnlinked(summary); err == nil {
		c.d.byteStore.Put(key, bytes)
	}
	return summary, nil
}

// getCurrentUnlinked returns the UnlinkedSummary already cached for file's
// *current* content hash, without ever reading content or computing on
// miss. Used to retrieve the old APISignature before a change is verified.
func (c *SummaryCache) getCurrentUnlinked(fh *FileHandle) (UnlinkedSummary, bool) {
	hash, ok := c.d.cachedHash(fh.path)
	if !ok {
		return UnlinkedSummary{}, false
	}
	data, ok := c.d.byteStore.Get(unlinkedKey(hash))
	if !ok {
		return UnlinkedSummary{}, false
	}
	summary, err := c.d.serializer.DecodeUnlinked(data)
	if err != nil {
		return UnlinkedSummary{}, false
	}
	return summary, true
}

// resolveLinked populates store with the LinkedSummary for every node in
// nodes, fetching hits from the ByteStore and invoking the external Linker
// once for the whole batch of misses. The Linker's two lookup
// callbacks are backed by store, which the LibraryGraph traversal that
// produced nodes has already filled with every reachable UnlinkedSummary.
func (c *SummaryCache) resolveLinked(ctx context.Context, store *SummaryDataStore, nodes []*LibraryNode, strongMode bool) error {
	var misses []SourceURI
	for _, n := range nodes {
		sig := n.DependencySignature()
		key := linkedKey(sig)
		if data, ok := c.d.byteStore.Get(key); ok {
			if summary, err := c.d.serializer.DecodeLinked(data); err == nil {
				store.putLinked(n.URI, summary)
				continue
			}
		}
		misses = append(misses, n.URI)
	}
	if len(misses) == 0 {
		return nil
	}

	linked, err := c.d.linker.Link(ctx, misses, store.lookupLinked, store.lookupUnlinked, strongMode)
	if err != nil {
		return err
	}
	for _, uri := range misses {
		if _, ok := linked[uri]; !ok {
			// The Linker is contractually required to return one LinkedSummary
			// per requested root; its failure to do so means the library graph
			// and the linker disagree about what was requested, which the
			// driver cannot repair by itself.
			return internalErrorf("resolveLinked", uri, "linker returned no summary for requested root")
		}
	}

	bySig := make(map[SourceURI]DependencySignature, len(nodes))
	for _, n := range nodes {
		bySig[n.URI] = n.DependencySignature()
	}
	for uri, summary := range linked {
		summary.URI = uri
		summary.Sig = bySig[uri]
		store.putLinked(uri, summary)
		if bytes, err := c.d.serializer.EncodeLinked(summary); err == nil {
			c.d.byteStore.Put(linkedKey(summary.Sig), bytes)
		}
	}
	return nil
}

// SummaryDataStore is the in-memory store a single library-graph traversal
// populates with every UnlinkedSummary it visited, and that the Linker's
// lookupUnlinked/lookupLinked callbacks consult. It is scoped to one
// createLibraryContext call and discarded afterward; nothing this package
// does with it persists beyond the step that built it.
type SummaryDataStore struct {
	mu       sync.Mutex
	unlinked map[SourceURI]UnlinkedSummary
	linked   map[SourceURI]LinkedSummary
}

func newSummaryDataStore() *SummaryDataStore {
	return &SummaryDataStore{
		unlinked: make(map[SourceURI]UnlinkedSummary),
		linked:   make(map[SourceURI]LinkedSummary),
	}
}

func (s *SummaryDataStore) putUnlinked(uri SourceURI, summary UnlinkedSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlinked[uri] = summary
}

func (s *SummaryDataStore) putLinked(uri SourceURI, summary LinkedSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linked[uri] = summary
}

func (s *SummaryDataStore) lookupUnlinked(uri SourceURI) (UnlinkedSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.unlinked[uri]
	return u, ok
}

func (s *SummaryDataStore) lookupLinked(uri SourceURI) (LinkedSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.linked[uri]
	return l, ok
}
