// Copyright 2026 The langdriver Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ErrShutdown is returned to any pending GetResult future when the driver is
// torn down before the promise could be satisfied.
var ErrShutdown = xerrors.New("driver: shut down with requests pending")

// InternalError reports a violation of an invariant the driver itself is
// responsible for upholding — for example a missing unlinked/linked summary
// during a link, where the in-memory SummaryDataStore should already have
// been populated by the traversal that requested the link. It is never
// expected in correct operation and is not retried.
type InternalError struct {
	Op  string
	URI SourceURI
	Err error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal consistency failure in %s for %s: %v", e.Op, e.URI, e.Err)
	}
	return fmt.Sprintf("internal consistency failure in %s for %s", e.Op, e.URI)
}

func (e *InternalError) Unwrap() error { return e.Err }

func internalErrorf(op string, uri SourceURI, format string, args ...any) error {
	return &InternalError{Op: op, URI: uri, Err: xerrors.Errorf(format, args...)}
}
