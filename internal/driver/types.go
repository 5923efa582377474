// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver implements the incremental-analysis driver: the core that
// keeps diagnostics and each file's parsed syntax tree eventually consistent
// with a dynamically changing set of source files, against a
// content-addressed persistent cache. The tree it delivers is the unresolved
// parse tree; no tree resolved against other libraries is produced (see
// ResolvedUnit).
package driver

// SourcePath is an absolute, normalized path. It is the primary external
// identifier for a file.
type SourcePath = string

// SourceURI is a canonical URI for a file (e.g. "package:" or "file:"
// scheme), as produced by a SourceFactory. The mapping from path to URI is
// not assumed stable across time.
type SourceURI = string

// ContentHash is the lowercase hex MD5 digest of a file's UTF-8 content. It
// is the semantic identifier of file content: two files with the same
// ContentHash are interchangeable for caching purposes regardless of path.
type ContentHash string

// APISignature is a digest over only the externally visible shape of a
// compilation unit: declarations and signatures, never bodies. Edits that
// cannot affect downstream libraries leave it unchanged.
type APISignature string

// DependencySignature is the cache key for linked artifacts and diagnostics:
// a hex digest over a library's own URI followed by the sorted APISignatures
// of its transitive dependency closure, including the SDK bundle's.
type DependencySignature string

// UnlinkedSummary is an opaque byte blob describing the declarations and
// references of one compilation unit, plus its APISignature.
type UnlinkedSummary struct {
	URI      SourceURI
	Hash     ContentHash
	APISig   APISignature
	Imported []SourceURI
	Exported []SourceURI
	Parted   []SourceURI
	Payload  []byte // opaque encoded declaration/reference shape
}

// LinkedSummary is an opaque byte blob resolving one library against its
// dependencies' unlinked summaries.
type LinkedSummary struct {
	URI     SourceURI
	Sig     DependencySignature
	Payload []byte
}

// AnalysisResult is a self-consistent tuple: the content hashes the content,
// the unit was parsed from that content, and every external reference was
// linked against the same snapshot.
type AnalysisResult struct {
	Path        SourcePath
	URI         SourceURI
	Content     string
	ContentHash ContentHash
	Unit        ResolvedUnit
	Errors      []string
}

// ResolvedUnit is the addressable unresolved syntax tree produced by the
// external scanner/parser for one file (ScanParser.ScanAndParse). Despite
// the name, it carries pre-resolution AST/line-table shape, not a tree with
// cross-file references linked; the driver never inspects it itself, only
// carries it from collaborator to client. See DESIGN.md for why no linked
// tree is available in AnalysisResult.
type ResolvedUnit interface{}
