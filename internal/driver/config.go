// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// AnalysisOptions configures a Driver.
type AnalysisOptions struct {
	// StrongMode toggles strict typing in the scanner/parser and the linker.
	StrongMode bool `yaml:"strongMode"`

	// SDKSummaryPath records where a pre-linked SDK bundle lives on disk.
	// Nothing in this package reads it: New takes the SDK bundle from the
	// SourceFactory it is given.
	SDKSummaryPath string `yaml:"sdkSummaryPath,omitempty"`

	// CacheDir records a root directory for an on-disk ByteStore. Nothing in
	// this package opens a store from it: New uses the ByteStore it is
	// given, and NewFileStore takes its directory as an argument.
	CacheDir string `yaml:"cacheDir,omitempty"`
}

// LoadAnalysisOptions reads AnalysisOptions from a YAML document at path.
func LoadAnalysisOptions(path string) (AnalysisOptions, error) {
	var opts AnalysisOptions
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, xerrors.Errorf("reading analysis options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, xerrors.Errorf("parsing analysis options %s: %w", path, err)
	}
	return opts, nil
}
