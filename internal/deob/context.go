package deob

import (
	"deflow/internal/diag"
	"deflow/internal/meta"
	"deflow/internal/opaque"
)

// Context carries the per-module analysis state through the pipeline: the
// module, its opaque-field table (read-only after the one-time scan), the
// diagnostic stream, and the running replacement counter. Keeping the
// counter here rather than in package state means several modules can be
// processed without cross-contamination. Processing within a context is
// single-threaded; there is no locking because there is no concurrent
// access.
type Context struct {
	Module *meta.Module
	Opaque *opaque.Table
	Log    *diag.Logger

	// NumReplaced counts decoys routed around and opaque loads inlined.
	NumReplaced int

	folder *Folder
}

// NewContext scans the module's initialization code for opaque-predicate
// fields and returns a context ready to clean methods.
func NewContext(m *meta.Module, log *diag.Logger) *Context {
	if log == nil {
		log = diag.Nop()
	}
	table := opaque.Scan(m, log)
	return &Context{
		Module: m,
		Opaque: table,
		Log:    log,
		folder: NewFolder(m, table),
	}
}
