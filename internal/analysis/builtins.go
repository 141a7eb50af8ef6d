// Package analysis contains the derived analyses over a completed module
// graph: cycle detection, export usage, dependency auditing, export-flow
// tracing, and architecture classification. Every function treats the
// graph as immutable.
package analysis

import "strings"

// nodeBuiltins is the Node.js built-in module name set. Packages resolving
// to one of these are exempt from the unlisted-dependency check.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"sys": true, "timers": true, "tls": true, "trace_events": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}

// IsBuiltin reports whether a normalized package name is a Node.js runtime
// built-in, with or without the node: prefix.
func IsBuiltin(pkg string) bool {
	pkg = strings.TrimPrefix(pkg, "node:")
	if i := strings.IndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[:i]
	}
	return nodeBuiltins[pkg]
}
