// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LibraryNode is one library in a library-graph build, keyed by its URI.
// It lives only for the duration of the createLibraryContext call that
// created it; its DependencySignature, however, is memoized globally on the
// Driver until an API-signature mismatch invalidates it.
type LibraryNode struct {
	URI             SourceURI
	unlinkedBundles []UnlinkedSummary // this library's own file plus its parts
	directDeps      []SourceURI       // imported+exported, platform URIs excluded

	graph *libraryGraphBuild
}

// DependencySignature returns the node's dependency signature, consulting
// and populating the Driver's global memoization cache first.
func (n *LibraryNode) DependencySignature() DependencySignature {
	if sig, ok := n.graph.d.cachedDependencySignature(n.URI); ok {
		return sig
	}
	sig := n.computeSignature()
	n.graph.d.recordDependencySignature(n.URI, sig)
	return sig
}

// computeSignature builds T(N), collects and sorts the APISignatures of
// every UnlinkedSummary reachable in it (plus the SDK bundle's), and
// combines uri(N) with the sorted list into one digest. Sorting first makes
// the result independent of traversal order.
func (n *LibraryNode) computeSignature() DependencySignature {
	closure := n.graph.transitiveClosure(n.URI)

	var sigs []APISignature
	for _, uri := range closure {
		node := n.graph.nodeAt(uri)
		if node == nil {
			continue
		}
		for _, bundle := range node.unlinkedBundles {
			sigs = append(sigs, bundle.APISig)
		}
	}
	sigs = append(sigs, n.graph.d.sourceFactory.SDKBundle().APISignature())

	return dependencySignatureOf(n.URI, sigs)
}

// libraryGraphBuild is the state of a single createLibraryContext call: the
// nodes map, keyed by URI, that terminates cycles by memoizing a node before
// its dependencies are explored, and the in-memory SummaryDataStore the
// traversal populates for the Linker.
type libraryGraphBuild struct {
	d     *Driver
	store *SummaryDataStore

	mu    sync.Mutex
	nodes map[SourceURI]*LibraryNode
}

func (b *libraryGraphBuild) nodeAt(uri SourceURI) *LibraryNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nodes[uri]
}

// createLibraryContext builds the library node graph rooted at fh, returning
// the populated SummaryDataStore and the root's LibraryNode.
func (d *Driver) createLibraryContext(ctx context.Context, fh *FileHandle) (*SummaryDataStore, *LibraryNode, error) {
	b := &libraryGraphBuild{
		d:     d,
		store: newSummaryDataStore(),
		nodes: make(map[SourceURI]*LibraryNode),
	}
	root, err := b.getOrCreateNode(ctx, fh)
	if err != nil {
		return nil, nil, err
	}
	return b.store, root, nil
}

// getOrCreateNode resolves fh's own UnlinkedSummary and those of its parts,
// partitions its references into imported/exported/parted, recurses into
// imported/exported URIs to build child nodes (fanned out with an errgroup,
// mirroring gopls/internal/cache's own dependency-DAG construction in
// analysis.go and check.go), and skips URIs the SDK bundle serves directly.
// The node is stored in b.nodes before recursion starts, which is what
// terminates import/export cycles.
func (b *libraryGraphBuild) getOrCreateNode(ctx context.Context, fh *FileHandle) (*LibraryNode, error) {
	uri, err := fh.URI()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if n, ok := b.nodes[uri]; ok {
		b.mu.Unlock()
		return n, nil
	}
	n := &LibraryNode{URI: uri, graph: b}
	b.nodes[uri] = n
	b.mu.Unlock()

	summary, err := b.d.summaryCache.getUnlinked(ctx, fh)
	if err != nil {
		return nil, err
	}
	b.store.putUnlinked(uri, summary)
	n.unlinkedBundles = append(n.unlinkedBundles, summary)

	for _, partRef := range summary.Parted {
		partFH, err := fh.ResolveURI(string(partRef))
		if err != nil {
			return nil, err
		}
		partURI, err := partFH.URI()
		if err != nil {
			return nil, err
		}
		partSummary, err := b.d.summaryCache.getUnlinked(ctx, partFH)
		if err != nil {
			return nil, err
		}
		b.store.putUnlinked(partURI, partSummary)
		n.unlinkedBundles = append(n.unlinkedBundles, partSummary)
	}

	sdk := b.d.sourceFactory.SDKBundle()
	var refs []SourceURI
	refs = append(refs, summary.Imported...)
	refs = append(refs, summary.Exported...)
	for _, ref := range refs {
		if sdk.IsPlatformURI(ref) {
			continue
		}
		n.directDeps = append(n.directDeps, ref)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range n.directDeps {
		dep := dep
		g.Go(func() error {
			childFH, err := fh.ResolveURI(string(dep))
			if err != nil {
				return err
			}
			_, err = b.getOrCreateNode(gctx, childFH)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return n, nil
}

// transitiveClosure returns T(root) = {root} ∪ ⋃ deps(n) for n ∈ T(root),
// as a slice of URIs (duplicates never appear since visitation is
// memoized). The caller sorts the resulting APISignatures, not these URIs.
func (b *libraryGraphBuild) transitiveClosure(root SourceURI) []SourceURI {
	visited := make(map[SourceURI]bool)
	var walk func(SourceURI)
	walk = func(u SourceURI) {
		if visited[u] {
			return
		}
		visited[u] = true
		n := b.nodeAt(u)
		if n == nil {
			return
		}
		for _, dep := range n.directDeps {
			walk(dep)
		}
	}
	walk(root)

	out := make([]SourceURI, 0, len(visited))
	for u := range visited {
		out = append(out, u)
	}
	return out
}
