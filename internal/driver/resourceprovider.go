// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"os"
	"sync"
)

// osResourceProvider is a ResourceProvider backed directly by the local
// filesystem, via os.ReadFile. It is the production binding a caller
// reaches for when it isn't supplying its own editor-integrated one; fed
// into a FileHandle it turns a SourcePath into bytes with no caching of its
// own — caching happens above it, in the Driver's content-hash bookkeeping
// and the ByteStore.
type osResourceProvider struct{}

// NewOSResourceProvider returns a ResourceProvider that reads files directly
// off disk, uninvolved with any editor overlay. Pair it with NewOverrideCache
// when unsaved-buffer content needs to take precedence over what's on disk.
func NewOSResourceProvider() ResourceProvider {
	return osResourceProvider{}
}

func (osResourceProvider) GetFile(path SourcePath) ResourceFile {
	return osResourceFile{path: path}
}

type osResourceFile struct {
	path SourcePath
}

// CreateSource returns a Source for the file. uri is used verbatim if
// non-empty; otherwise the path itself, under a "file:" scheme, serves as
// the canonical URI. Nothing here touches disk yet: the read is deferred to
// Data, so a FileHandle that never asks for content never pays for one.
func (r osResourceFile) CreateSource(uri SourceURI) (Source, error) {
	if uri == "" {
		uri = "file:" + r.path
	}
	return osSource{path: r.path, uri: uri}, nil
}

type osSource struct {
	path SourcePath
	uri  SourceURI
}

func (s osSource) FullName() SourcePath { return s.path }
func (s osSource) URI() SourceURI       { return s.uri }

// Data reads the file fresh on every call; FileHandle.Content is the layer
// responsible for latching a single read per analysis step.
func (s osSource) Data() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// OverrideCache is a ContentCache holding unsaved-buffer content keyed by
// path, for callers (an editor or language-server session layer) that need
// open-file content to win over whatever is on disk. A path with no
// override reports a miss, deferring to the filesystem.
type OverrideCache struct {
	mu   sync.RWMutex
	data map[SourcePath]string
}

// NewOverrideCache returns an empty ContentCache. Set and Clear manage the
// overrides directly; GetContents implements the ContentCache contract the
// driver consults ahead of the filesystem.
func NewOverrideCache() *OverrideCache {
	return &OverrideCache{data: make(map[SourcePath]string)}
}

// Set records content as the override for path, taking precedence over
// whatever osResourceProvider would read from disk until Clear is called.
func (c *OverrideCache) Set(path SourcePath, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[path] = content
}

// Clear removes any override for path, restoring on-disk content as the
// source of truth for it.
func (c *OverrideCache) Clear(path SourcePath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, path)
}

func (c *OverrideCache) GetContents(src Source) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.data[src.FullName()]
	return content, ok
}
