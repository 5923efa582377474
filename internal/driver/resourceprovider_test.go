// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSResourceProviderReadsDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.dart")
	if err := os.WriteFile(path, []byte("class A {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	rp := NewOSResourceProvider()
	src, err := rp.GetFile(path).CreateSource("")
	if err != nil {
		t.Fatal(err)
	}
	if src.FullName() != path {
		t.Fatalf("FullName() = %s, want %s", src.FullName(), path)
	}
	if got, want := src.URI(), "file:"+path; got != want {
		t.Fatalf("URI() = %s, want %s", got, want)
	}
	data, err := src.Data()
	if err != nil {
		t.Fatal(err)
	}
	if data != "class A {}" {
		t.Fatalf("Data() = %q", data)
	}
}

func TestOSResourceProviderMissingFile(t *testing.T) {
	rp := NewOSResourceProvider()
	src, err := rp.GetFile(filepath.Join(t.TempDir(), "missing.dart")).CreateSource("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Data(); err == nil {
		t.Fatal("expected an error reading a nonexistent file")
	}
}

func TestOverrideCacheWinsOverMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.dart")
	if err := os.WriteFile(path, []byte("on disk"), 0o644); err != nil {
		t.Fatal(err)
	}

	rp := NewOSResourceProvider()
	src, err := rp.GetFile(path).CreateSource("")
	if err != nil {
		t.Fatal(err)
	}

	cache := NewOverrideCache()
	if _, ok := cache.GetContents(src); ok {
		t.Fatal("expected a miss before any Set")
	}

	cache.Set(path, "unsaved buffer")
	content, ok := cache.GetContents(src)
	if !ok || content != "unsaved buffer" {
		t.Fatalf("GetContents() = %q, %v", content, ok)
	}

	cache.Clear(path)
	if _, ok := cache.GetContents(src); ok {
		t.Fatal("expected a miss after Clear")
	}
}
