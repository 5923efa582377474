// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import "testing"

func TestHashContentDeterministic(t *testing.T) {
	a := hashContent("class A {}")
	b := hashContent("class A {}")
	if a != b {
		t.Fatalf("hashContent must be deterministic: %s != %s", a, b)
	}
	if a == hashContent("class B {}") {
		t.Fatalf("hashContent must distinguish different content")
	}
}

func TestHashContentIsMD5Hex(t *testing.T) {
	// MD5 of the empty string is a well-known constant; pin it so a future
	// change to the digest algorithm is caught immediately — this format is
	// part of the on-disk wire contract, not a free choice.
	const emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"
	if got := hashContent(""); string(got) != emptyMD5 {
		t.Fatalf("hashContent(\"\") = %s, want %s", got, emptyMD5)
	}
}

func TestDependencySignatureOrderIndependent(t *testing.T) {
	a := dependencySignatureOf("uri:a", []APISignature{"sig1", "sig2", "sig3"})
	b := dependencySignatureOf("uri:a", []APISignature{"sig3", "sig1", "sig2"})
	if a != b {
		t.Fatalf("dependencySignatureOf must be independent of input order: %s != %s", a, b)
	}
}

func TestDependencySignatureVariesByURI(t *testing.T) {
	sigs := []APISignature{"sig1", "sig2"}
	a := dependencySignatureOf("uri:a", sigs)
	b := dependencySignatureOf("uri:b", sigs)
	if a == b {
		t.Fatalf("dependencySignatureOf must incorporate the node's own URI")
	}
}

func TestKeySuffixes(t *testing.T) {
	if got := unlinkedKey("H"); got != "H.unlinked" {
		t.Fatalf("unlinkedKey = %s", got)
	}
	if got := linkedKey("D"); got != "D.linked" {
		t.Fatalf("linkedKey = %s", got)
	}
	if got := errorsKey("D", "H"); len(got) == 0 || got[len(got)-7:] != ".errors" {
		t.Fatalf("errorsKey = %s, want a .errors suffix", got)
	}
}

func TestMemStoreRoundTripsAndCopies(t *testing.T) {
	s := NewMemStore()
	v := []byte("hello")
	s.Put("k", v)

	got, ok := s.Get("k")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}

	// Mutating the caller's original slice, or the returned slice, must not
	// affect the store's copy: a blob is never rewritten under the same key
	// with different semantics.
	v[0] = 'H'
	got[0] = 'X'
	got2, _ := s.Get("k")
	if string(got2) != "hello" {
		t.Fatalf("store must defensively copy on both Put and Get, got %q", got2)
	}

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected a miss for an unknown key")
	}
}
