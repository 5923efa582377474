// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// hashContent computes the ContentHash of file text: the lowercase hex MD5
// digest of its UTF-8 bytes. This is a fixed wire format, not a design
// choice free to change — downstream diagnostics caches must reproduce the
// same key across restarts and across reimplementations.
func hashContent(content string) ContentHash {
	sum := md5.Sum([]byte(content))
	return ContentHash(hex.EncodeToString(sum[:]))
}

// dependencySignatureOf combines a library's own URI with the sorted
// APISignatures of its transitive dependency closure. Sorting first
// makes the digest independent of traversal order, which is the whole point
// of memoizing it.
func dependencySignatureOf(uri SourceURI, sigs []APISignature) DependencySignature {
	sorted := make([]string, len(sigs))
	for i, s := range sigs {
		sorted[i] = string(s)
	}
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(uri))
	for _, s := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return DependencySignature(hex.EncodeToString(h.Sum(nil)))
}

// errorsKey is the combined key under which a file's diagnostics are
// stored: sig(dependencySignature, contentHash).errors.
func errorsKey(dep DependencySignature, hash ContentHash) string {
	h := sha256.New()
	h.Write([]byte(dep))
	h.Write([]byte{0})
	h.Write([]byte(hash))
	return hex.EncodeToString(h.Sum(nil)) + ".errors"
}

func unlinkedKey(hash ContentHash) string { return string(hash) + ".unlinked" }
func linkedKey(dep DependencySignature) string { return string(dep) + ".linked" }
