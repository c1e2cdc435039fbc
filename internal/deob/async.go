package deob

import (
	"strings"

	"deflow/internal/meta"
)

// Naming conventions of asynchronous-continuation methods in the targeted
// binaries. Decoy recognition is restricted to these methods: the
// obfuscator injects its dispatch machinery into compiler-generated state
// machines, and limiting the pass there avoids false positives on genuine
// small-integer switches in ordinary code.
const (
	deferredResultType   = "Task"
	continuationEntry    = "MoveNext"
	asyncSuffix          = "Async"
	deferredResultPrefix = deferredResultType + "`"
)

// EligibleMethod reports whether a method is in asynchronous-continuation
// style: it returns the deferred-result wrapper, is the compiler-synthesized
// continuation entry point, or follows the async naming suffix convention.
func EligibleMethod(fn *meta.MethodDef) bool {
	ret := baseTypeName(fn.Return)
	if ret == deferredResultType || strings.HasPrefix(ret, deferredResultPrefix) {
		return true
	}
	if fn.Name == continuationEntry {
		return true
	}
	return strings.HasSuffix(fn.Name, asyncSuffix)
}

// baseTypeName strips a namespace qualifier from a type full name.
func baseTypeName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
