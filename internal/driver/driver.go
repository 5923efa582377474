// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Driver holds the global mutable state of the incremental-analysis core:
// file-content hashes, the dependency-signature memoization cache, the
// request queues, and the file sets. It services three concurrent client
// request kinds — added file set, per-file futures, change notifications —
// through a single cooperative work loop. The queues and file sets share
// mu; the content-hash map, the dependency-signature map and the URI
// resolution cache each have their own lock.
type Driver struct {
	log           *PerfLog
	resources     ResourceProvider
	byteStore     ByteStore
	contentCache  ContentCache
	sourceFactory SourceFactory
	scanParser    ScanParser
	serializer    Serializer
	linker        Linker
	engineFactory AnalysisEngineFactory
	opts          AnalysisOptions

	summaryCache *SummaryCache

	mu            sync.Mutex
	explicitFiles map[SourcePath]bool
	toAnalyze     []SourcePath
	toAnalyzeSet  map[SourcePath]bool
	toVerify      map[SourcePath]bool
	requested     map[SourcePath][]chan resultOrErr
	priority      map[SourcePath]bool
	closed        bool

	hashMu   sync.RWMutex
	fileHash map[SourcePath]ContentHash

	sigMu  sync.RWMutex
	depSig map[SourceURI]DependencySignature

	uriMu    sync.Mutex
	uriCache map[SourceURI]map[string]Source

	wake chan string

	startOnce sync.Once
	resultsCh chan AnalysisResult
}

type resultOrErr struct {
	res AnalysisResult
	err error
}

// New constructs a Driver from its external collaborators. log may be nil,
// in which case NewPerfLog(nil) (a no-op log) is used.
func New(
	log *PerfLog,
	resources ResourceProvider,
	byteStore ByteStore,
	contentCache ContentCache,
	sourceFactory SourceFactory,
	scanParser ScanParser,
	serializer Serializer,
	linker Linker,
	engineFactory AnalysisEngineFactory,
	opts AnalysisOptions,
) *Driver {
	if log == nil {
		log = NewPerfLog(nil)
	}
	d := &Driver{
		log:           log,
		resources:     resources,
		byteStore:     byteStore,
		contentCache:  contentCache,
		sourceFactory: sourceFactory,
		scanParser:    scanParser,
		serializer:    serializer,
		linker:        linker,
		engineFactory: engineFactory,
		opts:          opts,

		explicitFiles: make(map[SourcePath]bool),
		toAnalyzeSet:  make(map[SourcePath]bool),
		toVerify:      make(map[SourcePath]bool),
		requested:     make(map[SourcePath][]chan resultOrErr),
		priority:      make(map[SourcePath]bool),

		fileHash: make(map[SourcePath]ContentHash),
		depSig:   make(map[SourceURI]DependencySignature),
		uriCache: make(map[SourceURI]map[string]Source),

		wake: make(chan string, 1),
	}
	d.summaryCache = newSummaryCache(d)
	return d
}

// DependencySignatureCacheSize reports how many libraries currently have a
// memoized DependencySignature. For debugging and testing only — it exists
// to make the "cleared entirely on API-signature mismatch" behavior of
// verifyChangedFiles observable from outside the package, the same way
// gopls/internal/cache's Session.Cache exposes internals "for debugging
// only".
func (d *Driver) DependencySignatureCacheSize() int {
	d.sigMu.RLock()
	defer d.sigMu.RUnlock()
	return len(d.depSig)
}

// --- client operations ---

// AddFile inserts path into the explicit set and the analysis queue.
func (d *Driver) AddFile(path SourcePath) {
	d.mu.Lock()
	d.explicitFiles[path] = true
	d.enqueueLocked(path)
	d.mu.Unlock()
	d.wakeUp("addFile")
}

// RemoveFile removes path from the explicit set and the analysis queue. No
// other state is mutated: cached artifacts remain, since they are
// content-addressed, and a result for path may still be delivered.
func (d *Driver) RemoveFile(path SourcePath) {
	d.mu.Lock()
	delete(d.explicitFiles, path)
	d.dequeueLocked(path)
	d.mu.Unlock()
	d.wakeUp("removeFile")
}

// ChangeFile marks path for API-signature re-verification and re-analysis.
// path need not be in the explicit set.
func (d *Driver) ChangeFile(path SourcePath) {
	d.mu.Lock()
	d.toVerify[path] = true
	d.enqueueLocked(path)
	d.mu.Unlock()
	d.wakeUp("changeFile")
}

// GetResult registers a promise for path's next AnalysisResult. Exactly one
// result satisfies it; unsolicited results may still be observed later on
// Results. It blocks until satisfied or ctx is done.
func (d *Driver) GetResult(ctx context.Context, path SourcePath) (AnalysisResult, error) {
	ch := make(chan resultOrErr, 1)
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return AnalysisResult{}, ErrShutdown
	}
	d.requested[path] = append(d.requested[path], ch)
	d.enqueueLocked(path)
	d.mu.Unlock()
	d.wakeUp("getResult")

	select {
	case r := <-ch:
		return r.res, r.err
	case <-ctx.Done():
		return AnalysisResult{}, ctx.Err()
	}
}

// SetPriorityFiles reorders the queue so that paths may be processed before
// non-priority files. This is a hint, not a strict ordering contract.
func (d *Driver) SetPriorityFiles(paths []SourcePath) {
	d.mu.Lock()
	d.priority = make(map[SourcePath]bool, len(paths))
	for _, p := range paths {
		d.priority[p] = true
	}
	sort.SliceStable(d.toAnalyze, func(i, j int) bool {
		pi, pj := d.priority[d.toAnalyze[i]], d.priority[d.toAnalyze[j]]
		return pi && !pj
	})
	d.mu.Unlock()
	d.wakeUp("setPriorityFiles")
}

// Results returns the hot stream of AnalysisResults, starting the work loop
// on first call. Cancelling ctx stops the loop after its current step and
// fails any pending GetResult promises with ErrShutdown.
func (d *Driver) Results(ctx context.Context) <-chan AnalysisResult {
	d.startOnce.Do(func() {
		d.resultsCh = make(chan AnalysisResult, 16)
		go d.run(ctx)
	})
	return d.resultsCh
}

func (d *Driver) enqueueLocked(path SourcePath) {
	if d.toAnalyzeSet[path] {
		return
	}
	d.toAnalyzeSet[path] = true
	d.toAnalyze = append(d.toAnalyze, path)
}

func (d *Driver) dequeueLocked(path SourcePath) {
	if !d.toAnalyzeSet[path] {
		return
	}
	delete(d.toAnalyzeSet, path)
	for i, p := range d.toAnalyze {
		if p == path {
			d.toAnalyze = append(d.toAnalyze[:i], d.toAnalyze[i+1:]...)
			break
		}
	}
}

// wakeUp signals the main loop. The channel is 1-buffered and the send is
// non-blocking: multiple wakes between loop iterations coalesce into a
// single pass over the queues, which is sound because every client
// operation has already mutated state under d.mu by the time wakeUp is
// called.
func (d *Driver) wakeUp(reason string) {
	select {
	case d.wake <- reason:
	default:
	}
}

// --- main loop ---

func (d *Driver) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case <-d.wake:
		}

		d.log.Run("verifyUnlinkedSignatureOfChangedFiles", func() {
			d.verifyChangedFiles(ctx)
		})

		for {
			if ctx.Err() != nil {
				break
			}
			path, ok := d.popNext()
			if !ok {
				break
			}

			var result AnalysisResult
			var err error
			d.log.Run("analyze:"+path, func() {
				result, err = d.analyzeFile(ctx, path)
			})
			d.deliver(ctx, path, result, err)
		}
	}
}

func (d *Driver) popNext() (SourcePath, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.toAnalyze) == 0 {
		return "", false
	}
	path := d.toAnalyze[0]
	d.toAnalyze = d.toAnalyze[1:]
	delete(d.toAnalyzeSet, path)
	return path, true
}

func (d *Driver) deliver(ctx context.Context, path SourcePath, result AnalysisResult, err error) {
	d.mu.Lock()
	waiters := d.requested[path]
	delete(d.requested, path)
	d.mu.Unlock()

	for _, ch := range waiters {
		ch <- resultOrErr{res: result, err: err}
	}

	if err != nil {
		return
	}
	select {
	case d.resultsCh <- result:
	case <-ctx.Done():
	}
}

func (d *Driver) shutdown() {
	d.mu.Lock()
	d.closed = true
	pending := d.requested
	d.requested = make(map[SourcePath][]chan resultOrErr)
	d.mu.Unlock()

	for _, chans := range pending {
		for _, ch := range chans {
			ch <- resultOrErr{err: ErrShutdown}
		}
	}
}

// verifyChangedFiles implements the API-signature verification pass. For
// each path queued for verification, it fetches the current
// (pre-change) UnlinkedSummary using the cached content hash, forces a
// fresh content read, and fetches the new UnlinkedSummary. If the two
// APISignatures differ for any file, the entire dependencySignatureMap is
// cleared, every explicit file is re-enqueued, and the loop stops checking
// further paths immediately — coarse, but sound.
func (d *Driver) verifyChangedFiles(ctx context.Context) {
	d.mu.Lock()
	paths := make([]SourcePath, 0, len(d.toVerify))
	for p := range d.toVerify {
		paths = append(paths, p)
	}
	d.mu.Unlock()

	mismatch := false
	for _, p := range paths {
		fh := newFileHandle(d, p)
		oldSummary, hadOld := d.summaryCache.getCurrentUnlinked(fh)
		d.forgetHash(p)
		newSummary, err := d.summaryCache.getUnlinked(ctx, fh)
		if err != nil {
			continue
		}
		if !hadOld || oldSummary.APISig != newSummary.APISig {
			mismatch = true
			break
		}
	}

	d.mu.Lock()
	if mismatch {
		d.sigMu.Lock()
		d.depSig = make(map[SourceURI]DependencySignature)
		d.sigMu.Unlock()
		for p := range d.explicitFiles {
			d.enqueueLocked(p)
		}
	}
	d.toVerify = make(map[SourcePath]bool)
	d.mu.Unlock()
}

// analyzeFile builds one AnalysisResult for path. The FileHandle and
// library context it creates go out of scope when this call returns,
// releasing the parsed tree and the library's summary data.
func (d *Driver) analyzeFile(ctx context.Context, path SourcePath) (AnalysisResult, error) {
	fh := newFileHandle(d, path)

	var store *SummaryDataStore
	var node *LibraryNode
	var err error
	d.log.Run("createLibraryContext", func() {
		store, node, err = d.createLibraryContext(ctx, fh)
	})
	if err != nil {
		return AnalysisResult{}, err
	}

	dep := node.DependencySignature()
	hash := fh.ContentHash()
	key := errorsKey(dep, hash)

	var errs []string
	if data, ok := d.byteStore.Get(key); ok {
		if decoded, derr := d.serializer.DecodeErrors(data); derr == nil {
			errs = decoded
		}
	}

	if errs == nil {
		if err := d.summaryCache.resolveLinked(ctx, store, []*LibraryNode{node}, d.opts.StrongMode); err != nil {
			return AnalysisResult{}, err
		}

		engine := d.engineFactory.NewEngine(ctx, d.sourceFactory, store, d.opts.StrongMode)
		defer engine.Dispose()

		uri, uerr := fh.URI()
		if uerr != nil {
			return AnalysisResult{}, uerr
		}
		engine.SetContents(uri, fh.Content())

		if root, ok := store.lookupUnlinked(uri); ok && len(root.Parted) > 0 {
			parts := make([]Source, 0, len(root.Parted))
			for _, partRef := range root.Parted {
				partFH, perr := fh.ResolveURI(string(partRef))
				if perr != nil {
					continue
				}
				if src, serr := partFH.resolveSource(); serr == nil {
					parts = append(parts, src)
				}
			}
			if len(parts) > 0 {
				engine.ApplyChanges(parts)
			}
		}

		computed, cerr := engine.ComputeErrors(ctx, uri)
		if cerr != nil {
			return AnalysisResult{}, cerr
		}
		errs = filterTODOErrors(computed)

		if bytes, eerr := d.serializer.EncodeErrors(errs); eerr == nil {
			d.byteStore.Put(key, bytes)
		}
	}

	uri, err := fh.URI()
	if err != nil {
		return AnalysisResult{}, err
	}
	unit, _ := fh.Unit(ctx)

	return AnalysisResult{
		Path:        path,
		URI:         uri,
		Content:     fh.Content(),
		ContentHash: hash,
		Unit:        unit,
		Errors:      errs,
	}, nil
}

// filterTODOErrors discards TODO-category diagnostics.
func filterTODOErrors(errs []string) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if strings.HasPrefix(e, "TODO:") {
			continue
		}
		out = append(out, e)
	}
	return out
}

// --- state helpers shared with filehandle.go, summarycache.go and
// librarygraph.go ---

func (d *Driver) recordHash(path SourcePath, hash ContentHash) {
	d.hashMu.Lock()
	d.fileHash[path] = hash
	d.hashMu.Unlock()
}

func (d *Driver) cachedHash(path SourcePath) (ContentHash, bool) {
	d.hashMu.RLock()
	defer d.hashMu.RUnlock()
	h, ok := d.fileHash[path]
	return h, ok
}

func (d *Driver) forgetHash(path SourcePath) {
	d.hashMu.Lock()
	delete(d.fileHash, path)
	d.hashMu.Unlock()
}

func (d *Driver) cachedDependencySignature(uri SourceURI) (DependencySignature, bool) {
	d.sigMu.RLock()
	defer d.sigMu.RUnlock()
	s, ok := d.depSig[uri]
	return s, ok
}

func (d *Driver) recordDependencySignature(uri SourceURI, sig DependencySignature) {
	d.sigMu.Lock()
	d.depSig[uri] = sig
	d.sigMu.Unlock()
}

// resolveURICached implements the two-level uriResolutionCache:
// outerURI -> directiveText -> Source. Resolution (compute) only runs on
// miss.
func (d *Driver) resolveURICached(outer SourceURI, directiveText string, compute func() (Source, error)) (Source, error) {
	d.uriMu.Lock()
	inner, ok := d.uriCache[outer]
	if ok {
		if src, ok := inner[directiveText]; ok {
			d.uriMu.Unlock()
			return src, nil
		}
	}
	d.uriMu.Unlock()

	src, err := compute()
	if err != nil {
		return nil, err
	}

	d.uriMu.Lock()
	if d.uriCache[outer] == nil {
		d.uriCache[outer] = make(map[string]Source)
	}
	d.uriCache[outer][directiveText] = src
	d.uriMu.Unlock()

	return src, nil
}
