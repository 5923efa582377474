// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

// ByteStore is a content-addressed blob store. Implementations may be
// in-memory, on-disk, or shared across multiple Drivers; the only contract
// is that a Put followed by a Get for the same key within one process
// succeeds, and that for any one key "last Put wins" — safe because keys
// are content-addressed, so two Puts under the same key carry semantically
// equivalent blobs.
type ByteStore interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
}
