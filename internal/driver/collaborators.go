// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import "context"

// ResourceProvider is the filesystem abstraction the driver is handed at
// construction. The driver only ever consumes it through this interface;
// see resourceprovider.go for the os.ReadFile-backed production binding and
// testdrv for a fake used in tests.
type ResourceProvider interface {
	// GetFile returns a handle capable of producing a Source for path.
	GetFile(path SourcePath) ResourceFile
}

// ResourceFile creates Sources for one path.
type ResourceFile interface {
	CreateSource(uri SourceURI) (Source, error)
}

// Source carries the identity and raw bytes of one file as seen by the
// resource provider.
type Source interface {
	FullName() SourcePath
	URI() SourceURI
	// Data returns the file's contents. A non-nil error means the file could
	// not be read (missing, permission denied, ...); FileHandle coerces this
	// to empty content rather than propagating the error.
	Data() (string, error)
}

// SourceFactory resolves relative or package URIs against a base source, and
// restores the canonical URI for a Source. It also carries the pre-linked
// SDK bundle supplied at driver construction.
type SourceFactory interface {
	ResolveURI(base Source, directiveText string) (Source, error)
	RestoreURI(src Source) SourceURI
	SDKBundle() SDKBundle
}

// SDKBundle is the pre-linked summary of the platform's core libraries.
// URIs under the platform's pseudo-scheme never produce LibraryGraph nodes;
// their contribution to a DependencySignature comes entirely from this
// bundle's own APISignature.
type SDKBundle interface {
	APISignature() APISignature
	// IsPlatformURI reports whether uri is served by this bundle rather than
	// by a regular LibraryNode (e.g. Dart's "dart:" scheme; "platform:" in testdrv).
	IsPlatformURI(uri SourceURI) bool
}

// ContentCache lets an editor/session layer override on-disk content for an
// open-but-unsaved file. A miss means "defer to the filesystem".
type ContentCache interface {
	GetContents(src Source) (string, bool)
}

// ScanParser turns source text into an unresolved syntax tree plus line
// info. Errors encountered while scanning/parsing are discarded here; the
// downstream AnalysisEngine reproduces them as real diagnostics.
type ScanParser interface {
	ScanAndParse(ctx context.Context, uri SourceURI, content string) (ResolvedUnit, error)
}

// Serializer turns an unresolved unit into an UnlinkedSummary, and builds
// PackageBundle-shaped blobs for both unlinked and linked artifacts.
type Serializer interface {
	SerializeUnlinked(uri SourceURI, unit ResolvedUnit) (UnlinkedSummary, error)
	EncodeUnlinked(UnlinkedSummary) ([]byte, error)
	DecodeUnlinked([]byte) (UnlinkedSummary, error)
	EncodeLinked(LinkedSummary) ([]byte, error)
	DecodeLinked([]byte) (LinkedSummary, error)
	EncodeErrors(errs []string) ([]byte, error)
	DecodeErrors([]byte) ([]string, error)
}

// Linker resolves a batch of root libraries against their dependencies'
// unlinked summaries, producing one LinkedSummary per root URI. lookupLinked
// and lookupUnlinked are backed by the in-memory SummaryDataStore populated
// during the library-graph traversal that triggered the batch.
type Linker interface {
	Link(
		ctx context.Context,
		rootURIs []SourceURI,
		lookupLinked func(SourceURI) (LinkedSummary, bool),
		lookupUnlinked func(SourceURI) (UnlinkedSummary, bool),
		strongMode bool,
	) (map[SourceURI]LinkedSummary, error)
}

// AnalysisEngine computes diagnostics for one file, seeded with the summary
// store assembled for its library. One engine instance is scoped to a single
// analysis step and must be disposed at the end of it, so the resolved state
// it accumulates never outlives the step that created it.
type AnalysisEngine interface {
	SetContents(uri SourceURI, content string)
	ApplyChanges(added []Source)
	ComputeErrors(ctx context.Context, uri SourceURI) ([]string, error)
	Dispose()
}

// AnalysisEngineFactory builds an AnalysisEngine scoped to one library
// context (the populated SummaryDataStore and library node for a step).
type AnalysisEngineFactory interface {
	NewEngine(ctx context.Context, sourceFactory SourceFactory, store *SummaryDataStore, strongMode bool) AnalysisEngine
}
