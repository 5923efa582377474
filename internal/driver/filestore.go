// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// fileStore is an on-disk ByteStore, sharded by the first two hex
// characters of the key so that a single directory never holds more than a
// few thousand entries. Writes are atomic: the blob is written to a
// temporary file in the same shard directory and renamed into place, the
// same durability idiom gopls/internal/cache/fs_memoized.go relies on when
// it treats a (file ID, mtime) pair as a stable read — a reader never
// observes a partially written blob.
type fileStore struct {
	root string
}

// NewFileStore returns a ByteStore rooted at dir, creating it if necessary.
// Multiple Drivers (even in different processes) may share one root; for
// any one key, the last Put to complete its rename wins.
func NewFileStore(dir string) (ByteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &fileStore{root: dir}, nil
}

func (s *fileStore) shardDir(key string) string {
	prefix := key
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(s.root, prefix)
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.shardDir(key), key)
}

func (s *fileStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *fileStore) Put(key string, value []byte) {
	dir := s.shardDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return // best-effort: a failed cache write never fails the analysis step
	}
	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(value)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		return
	}
	// Same directory, so the rename is atomic on every platform this cache
	// needs to run on.
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
	}
}
