package plugin

import (
	"strings"

	"github.com/woxQAQ/zig-wasm/internal/build"
	"github.com/woxQAQ/zig-wasm/internal/loader"
)

const (
	// InitSuffix requests an instantiated module.
	InitSuffix = build.SourceExt + "?init"
	// CompileSuffix requests a compiled, uninstantiated module.
	CompileSuffix = build.SourceExt + "?compile"

	// fsPrefix is how dev servers address files outside the project root.
	fsPrefix = "/@fs/"
)

// Request is one recognized build request.
type Request struct {
	// Identifier is the string the host passed in, untouched.
	Identifier string
	// SourcePath is the identifier with its suffix and host prefix removed.
	SourcePath string
	Variant    loader.Variant
	Server     bool
}

// Context returns where the emitted loader will run.
func (r Request) Context() loader.ExecutionContext {
	return loader.ContextFor(r.Server)
}

// ParseRequest recognizes identifiers ending in `.zig?init` or `.zig?compile`.
// A trailing `#fragment` is ignored. Anything else is not a request.
func ParseRequest(id string, server bool) (Request, bool) {
	trimmed := id
	if i := strings.IndexByte(trimmed, '#'); i >= 0 {
		trimmed = trimmed[:i]
	}

	var variant loader.Variant
	switch {
	case strings.HasSuffix(trimmed, InitSuffix):
		variant = loader.Instantiate
	case strings.HasSuffix(trimmed, CompileSuffix):
		variant = loader.Compile
	default:
		return Request{}, false
	}

	source := build.CleanIdentifier(trimmed)
	if rest, ok := strings.CutPrefix(source, fsPrefix); ok {
		source = "/" + rest
	}
	if source == build.SourceExt || strings.HasSuffix(source, "/"+build.SourceExt) {
		return Request{}, false
	}

	return Request{
		Identifier: id,
		SourcePath: source,
		Variant:    variant,
		Server:     server,
	}, true
}
