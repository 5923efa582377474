// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// PerfLog is a hierarchical, indentation-based log of timed phases. It
// has no effect on correctness — timing is an explicit feature of the
// driver, not a debugging afterthought, so it gets its own small component
// rather than being folded into an ad-hoc fmt.Println somewhere in the
// loop. Modeled on the teacher's own nearest equivalent
// (golang.org/x/tools/internal/event), which is likewise a dependency-free,
// hand-rolled log rather than a wrapper around a third-party structured
// logger.
type PerfLog struct {
	mu    sync.Mutex
	w     io.Writer
	depth int
}

// NewPerfLog returns a PerfLog that writes indented entry/exit lines to w.
// A nil w discards all output.
func NewPerfLog(w io.Writer) *PerfLog {
	return &PerfLog{w: w}
}

func (p *PerfLog) writeLine(format string, args ...any) {
	if p.w == nil {
		return
	}
	indent := ""
	for i := 0; i < p.depth; i++ {
		indent += "  "
	}
	fmt.Fprintf(p.w, "%s%s\n", indent, fmt.Sprintf(format, args...))
}

// Run records entry to label, runs f, then records exit with elapsed time.
// Nested Run calls indent one level further, so a PerfLog reads as a call
// tree rather than a flat timeline.
func (p *PerfLog) Run(label string, f func()) {
	p.mu.Lock()
	p.writeLine("+%s", label)
	p.depth++
	p.mu.Unlock()

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		p.mu.Lock()
		p.depth--
		p.writeLine("-%s (%s)", label, elapsed)
		p.mu.Unlock()
	}()

	f()
}
