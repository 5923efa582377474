// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import "context"

// FileHandle is a lazy view over one source: path, uri, content, content
// hash, and the unresolved syntax tree. It is created fresh inside a single
// analysis step and must not outlive the AnalysisResult it helped produce —
// nothing in this package retains one past the step that built it.
type FileHandle struct {
	d   *Driver
	src Source // present immediately for resolved dependents; lazy for the root

	path SourcePath // valid even before src is resolved

	contentRead bool
	content     string
	hash        ContentHash

	unit ResolvedUnit
}

// newFileHandle returns a handle for an explicit/queued path. Its Source is
// resolved lazily on first content access, via the ResourceProvider.
func newFileHandle(d *Driver, path SourcePath) *FileHandle {
	return &FileHandle{d: d, path: path}
}

// newFileHandleFromSource returns a handle for a Source already resolved by
// SourceFactory.ResolveURI (the case of a dependency reached through an
// import/export/part directive).
func newFileHandleFromSource(d *Driver, src Source) *FileHandle {
	return &FileHandle{d: d, src: src, path: src.FullName()}
}

// Path returns the handle's path, independent of whether its Source has
// been resolved yet.
func (fh *FileHandle) Path() SourcePath { return fh.path }

func (fh *FileHandle) resolveSource() (Source, error) {
	if fh.src != nil {
		return fh.src, nil
	}
	rf := fh.d.resources.GetFile(fh.path)
	src, err := rf.CreateSource("")
	if err != nil {
		return nil, err
	}
	fh.src = src
	return src, nil
}

// URI resolves and returns the handle's canonical URI.
func (fh *FileHandle) URI() (SourceURI, error) {
	src, err := fh.resolveSource()
	if err != nil {
		return "", err
	}
	return src.URI(), nil
}

// Content returns the current text of the file, acquiring it on first
// access: the content cache is consulted first, then the filesystem. Any
// failure to read — missing file, I/O error — is silently coerced to an
// empty string: the driver deliberately does not surface a missing-file
// diagnostic here, leaving that to the downstream AnalysisEngine. Reading
// recomputes the hash and records it in the Driver's file-content-hash map;
// contentRead latches so repeated calls on the same handle are free.
func (fh *FileHandle) Content() string {
	if fh.contentRead {
		return fh.content
	}
	src, err := fh.resolveSource()
	if err != nil {
		fh.content = ""
		fh.hash = hashContent("")
		fh.contentRead = true
		fh.d.recordHash(fh.path, fh.hash)
		return fh.content
	}

	content, ok := "", false
	if fh.d.contentCache != nil {
		content, ok = fh.d.contentCache.GetContents(src)
	}
	if !ok {
		data, err := src.Data()
		if err != nil {
			data = ""
		}
		content = data
	}

	fh.content = content
	fh.hash = hashContent(content)
	fh.contentRead = true
	fh.d.recordHash(fh.path, fh.hash)
	return fh.content
}

// ContentHash returns the handle's content hash. If content has already been
// read through this handle, that hash is returned. Otherwise, it returns
// whatever hash the Driver currently has cached for this path without
// touching content or the filesystem; if nothing is cached yet, it falls
// back to reading content. Callers that need both Content and ContentHash to
// correspond must call Content first.
func (fh *FileHandle) ContentHash() ContentHash {
	if fh.contentRead {
		return fh.hash
	}
	if h, ok := fh.d.cachedHash(fh.path); ok {
		return h
	}
	fh.Content()
	return fh.hash
}

// Unit scans then parses the current content using the external
// scanner/parser, attaching line info, and returns the unresolved tree.
// Scan/parse errors are discarded here (null listener); real diagnostics
// come from the AnalysisEngine during ComputeErrors.
func (fh *FileHandle) Unit(ctx context.Context) (ResolvedUnit, error) {
	if fh.unit != nil {
		return fh.unit, nil
	}
	uri, err := fh.URI()
	if err != nil {
		uri = ""
	}
	unit, _ := fh.d.scanParser.ScanAndParse(ctx, uri, fh.Content())
	fh.unit = unit
	return fh.unit, nil
}

// ResolveURI resolves a relative or package URI referenced from this file
// (an import/export/part directive) to the FileHandle it names, consulting
// the Driver's two-level uriResolutionCache (outerURI -> directiveText ->
// Source) before invoking the SourceFactory.
func (fh *FileHandle) ResolveURI(directiveText string) (*FileHandle, error) {
	outer, err := fh.URI()
	if err != nil {
		return nil, err
	}
	src, err := fh.d.resolveURICached(outer, directiveText, func() (Source, error) {
		base, err := fh.resolveSource()
		if err != nil {
			return nil, err
		}
		return fh.d.sourceFactory.ResolveURI(base, directiveText)
	})
	if err != nil {
		return nil, err
	}
	return newFileHandleFromSource(fh.d, src), nil
}
