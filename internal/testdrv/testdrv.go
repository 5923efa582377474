// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testdrv provides minimal, deterministic fakes for the external
// collaborators the driver package depends on: a scanner and parser, a
// serializer, a linker, and an analysis engine. Production
// code depends only on those interfaces; this package exists purely to
// exercise internal/driver end to end in tests and examples, playing the
// role of a toy front end for a tiny Dart-like source language of
// "import"/"export"/"part" directives and "class"/"func" declarations.
package testdrv

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ajesse11x/langdriver/internal/driver"
)

// FS is an in-memory filesystem and ContentCache override map, standing in
// for both the ResourceProvider and ContentCache collaborators.
type FS struct {
	mu        sync.RWMutex
	files     map[string]string
	overrides map[string]string
}

func NewFS() *FS {
	return &FS{files: make(map[string]string), overrides: make(map[string]string)}
}

func (f *FS) Write(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *FS) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

func (f *FS) Override(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[path] = content
}

func (f *FS) GetFile(path driver.SourcePath) driver.ResourceFile {
	return resourceFile{fs: f, path: path}
}

type resourceFile struct {
	fs   *FS
	path string
}

func (r resourceFile) CreateSource(uri driver.SourceURI) (driver.Source, error) {
	if uri == "" {
		uri = "file:" + r.path
	}
	return &source{fs: r.fs, path: r.path, uri: uri}, nil
}

type source struct {
	fs   *FS
	path string
	uri  string
}

func (s *source) FullName() driver.SourcePath { return s.path }
func (s *source) URI() driver.SourceURI       { return s.uri }
func (s *source) Data() (string, error) {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()
	content, ok := s.fs.files[s.path]
	if !ok {
		return "", fmt.Errorf("testdrv: no such file %s", s.path)
	}
	return content, nil
}

// ContentCache implementation: an override, keyed by path, wins over disk.
func (f *FS) GetContents(src driver.Source) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.overrides[src.FullName()]
	return c, ok
}

// SourceFactory resolves directive text as a path relative to the base
// source's own directory (a "/"-joined string; no real filesystem
// semantics are needed for the toy language).
type SourceFactory struct {
	FS  *FS
	SDK SDKBundle
}

func (sf *SourceFactory) ResolveURI(base driver.Source, directiveText string) (driver.Source, error) {
	dir := ""
	if i := strings.LastIndex(base.FullName(), "/"); i >= 0 {
		dir = base.FullName()[:i+1]
	}
	resolved := directiveText
	if !strings.HasPrefix(directiveText, "/") && !strings.Contains(directiveText, ":") {
		resolved = dir + directiveText
	}
	return sf.FS.GetFile(resolved).CreateSource("")
}

func (sf *SourceFactory) RestoreURI(src driver.Source) driver.SourceURI { return src.URI() }
func (sf *SourceFactory) SDKBundle() driver.SDKBundle                   { return sf.SDK }

// SDKBundle is a fixed, pre-linked summary of the toy platform's core
// library. URIs under the "platform:" scheme are served by it directly and
// never produce LibraryGraph nodes.
type SDKBundle struct {
	Sig driver.APISignature
}

func (b SDKBundle) APISignature() driver.APISignature { return b.Sig }
func (b SDKBundle) IsPlatformURI(uri driver.SourceURI) bool {
	return strings.HasPrefix(uri, "platform:")
}

// ScanParser "parses" by splitting content into lines; the Unit is just the
// line slice. Errors are never returned, matching the null-listener
// behavior the driver expects from this collaborator.
type ScanParser struct{}

func (ScanParser) ScanAndParse(_ context.Context, _ driver.SourceURI, content string) (driver.ResolvedUnit, error) {
	return strings.Split(content, "\n"), nil
}

var directiveRE = regexp.MustCompile(`^\s*(import|export|part)\s+"([^"]+)"\s*;\s*$`)
var declRE = regexp.MustCompile(`^\s*(class|func)\s+(\w+)`)

// Serializer extracts import/export/part directives and the set of
// top-level declaration headers (ignoring bodies) from a Unit, computing
// the APISignature from the sorted, deduplicated header set — so editing a
// method body never changes it, but adding, removing, or renaming a
// declaration always does.
type Serializer struct{}

func (Serializer) SerializeUnlinked(uri driver.SourceURI, unit driver.ResolvedUnit) (driver.UnlinkedSummary, error) {
	lines, _ := unit.([]string)

	var imported, exported, parted []driver.SourceURI
	var headers []string
	for _, line := range lines {
		if m := directiveRE.FindStringSubmatch(line); m != nil {
			switch m[1] {
			case "import":
				imported = append(imported, m[2])
			case "export":
				exported = append(exported, m[2])
			case "part":
				parted = append(parted, m[2])
			}
			continue
		}
		if m := declRE.FindStringSubmatch(line); m != nil {
			headers = append(headers, m[1]+" "+m[2])
		}
	}
	sort.Strings(headers)
	uniq := headers[:0]
	for i, h := range headers {
		if i == 0 || h != headers[i-1] {
			uniq = append(uniq, h)
		}
	}
	headers = uniq

	// Joined with ";" rather than a newline: EncodeUnlinked writes the
	// APISignature as a single line.
	shape := strings.Join(headers, ";")
	sig := apiSignature(shape)

	return driver.UnlinkedSummary{
		URI:      uri,
		APISig:   sig,
		Imported: imported,
		Exported: exported,
		Parted:   parted,
		Payload:  []byte(strings.Join(lines, "\n")),
	}, nil
}

func apiSignature(shape string) driver.APISignature {
	// A deterministic, content-addressed signature derived only from
	// declaration headers: same exported shape, same signature.
	return driver.APISignature("sig:" + shape)
}

// --- wire encoding: plain newline/field-delimited text, good enough for a
// toy front end; production serializers would use a real schema. ---

func (Serializer) EncodeUnlinked(s driver.UnlinkedSummary) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", s.URI, s.APISig)
	fmt.Fprintf(&b, "%s\n", strings.Join(s.Imported, ","))
	fmt.Fprintf(&b, "%s\n", strings.Join(s.Exported, ","))
	fmt.Fprintf(&b, "%s\n", strings.Join(s.Parted, ","))
	b.Write(s.Payload)
	return []byte(b.String()), nil
}

func (Serializer) DecodeUnlinked(data []byte) (driver.UnlinkedSummary, error) {
	parts := strings.SplitN(string(data), "\n", 6)
	if len(parts) < 6 {
		return driver.UnlinkedSummary{}, fmt.Errorf("testdrv: malformed unlinked summary")
	}
	splitNonEmpty := func(s string) []driver.SourceURI {
		if s == "" {
			return nil
		}
		return strings.Split(s, ",")
	}
	return driver.UnlinkedSummary{
		URI:      parts[0],
		APISig:   driver.APISignature(parts[1]),
		Imported: splitNonEmpty(parts[2]),
		Exported: splitNonEmpty(parts[3]),
		Parted:   splitNonEmpty(parts[4]),
		Payload:  []byte(parts[5]),
	}, nil
}

func (Serializer) EncodeLinked(s driver.LinkedSummary) ([]byte, error) {
	return []byte(string(s.URI) + "\n" + string(s.Sig) + "\n" + string(s.Payload)), nil
}

func (Serializer) DecodeLinked(data []byte) (driver.LinkedSummary, error) {
	parts := strings.SplitN(string(data), "\n", 3)
	if len(parts) < 3 {
		return driver.LinkedSummary{}, fmt.Errorf("testdrv: malformed linked summary")
	}
	return driver.LinkedSummary{URI: parts[0], Sig: driver.DependencySignature(parts[1]), Payload: []byte(parts[2])}, nil
}

func (Serializer) EncodeErrors(errs []string) ([]byte, error) {
	return []byte(strings.Join(errs, "\x00")), nil
}

func (Serializer) DecodeErrors(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	return strings.Split(string(data), "\x00"), nil
}

// Linker resolves every requested root by reading each of its imports'
// unlinked summaries out of the lookup callbacks (to exercise the linked
// path's data flow) and stitching together a trivial payload.
type Linker struct{}

func (Linker) Link(
	_ context.Context,
	rootURIs []driver.SourceURI,
	lookupLinked func(driver.SourceURI) (driver.LinkedSummary, bool),
	lookupUnlinked func(driver.SourceURI) (driver.UnlinkedSummary, bool),
	strongMode bool,
) (map[driver.SourceURI]driver.LinkedSummary, error) {
	out := make(map[driver.SourceURI]driver.LinkedSummary, len(rootURIs))
	for _, uri := range rootURIs {
		root, ok := lookupUnlinked(uri)
		if !ok {
			return nil, fmt.Errorf("testdrv: linker: missing unlinked summary for %s", uri)
		}
		var deps []string
		for _, dep := range root.Imported {
			if u, ok := lookupUnlinked(dep); ok {
				deps = append(deps, string(u.APISig))
			}
		}
		sort.Strings(deps)
		payload := fmt.Sprintf("linked(%s,strong=%v,deps=%v)", root.APISig, strongMode, deps)
		out[uri] = driver.LinkedSummary{URI: uri, Payload: []byte(payload)}
	}
	return out, nil
}

// Engine is a trivial AnalysisEngine: it reports one "TODO:" diagnostic for
// each line of the requested file containing the literal text "TODO", which
// the driver filters out before the client ever sees them. It reports
// nothing else; import directives are not checked against the
// SummaryDataStore.
type Engine struct {
	store *driver.SummaryDataStore
	files map[driver.SourceURI]string
}

type EngineFactory struct{}

func (EngineFactory) NewEngine(_ context.Context, _ driver.SourceFactory, store *driver.SummaryDataStore, _ bool) driver.AnalysisEngine {
	return &Engine{store: store, files: make(map[driver.SourceURI]string)}
}

func (e *Engine) SetContents(uri driver.SourceURI, content string) { e.files[uri] = content }
func (e *Engine) ApplyChanges(added []driver.Source) {
	for _, s := range added {
		data, err := s.Data()
		if err == nil {
			e.files[s.URI()] = data
		}
	}
}

func (e *Engine) ComputeErrors(_ context.Context, uri driver.SourceURI) ([]string, error) {
	content := e.files[uri]
	var errs []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "TODO") {
			errs = append(errs, "TODO: "+strings.TrimSpace(line))
		}
	}
	return errs, nil
}

func (e *Engine) Dispose() {}
