// Package loader generates the JavaScript modules that stand in for a
// `.zig?init` or `.zig?compile` import.
package loader

import (
	"bytes"
	"encoding/json"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// Variant is what the importing module asks for.
type Variant int

const (
	// Compile yields a WebAssembly.Module the caller instantiates itself.
	Compile Variant = iota
	// Instantiate yields a ready WebAssembly.Instance.
	Instantiate
)

func (v Variant) String() string {
	switch v {
	case Compile:
		return "compile"
	case Instantiate:
		return "init"
	default:
		return "unknown"
	}
}

// ExecutionContext is where the emitted module runs.
type ExecutionContext int

const (
	// Client modules run in the browser and fetch the artifact by URL.
	Client ExecutionContext = iota
	// Server modules run in Node and read the artifact from disk.
	Server
)

func (c ExecutionContext) String() string {
	if c == Server {
		return "server"
	}
	return "client"
}

// ContextFor maps a server flag to an ExecutionContext.
func ContextFor(server bool) ExecutionContext {
	if server {
		return Server
	}
	return Client
}

const (
	// InitQuery addresses the secondary module that instantiates an artifact.
	InitQuery = "?init"
	// URLQuery addresses the artifact as an emitted asset URL.
	URLQuery = "?url"
)

var templates = template.Must(template.New("loader").Parse(`
{{- define "server-init" -}}
import * as fs from "node:fs/promises";

export default async function instantiate(imports) {
  const bytes = await fs.readFile({{.Path}});
  const result = await WebAssembly.instantiate(bytes, imports);
  return result.instance;
}

export { instantiate };
{{end}}

{{- define "client-init" -}}
import init from {{.InitSpecifier}};
export default init;
export { init as instantiate };
{{end}}

{{- define "server-compile" -}}
import * as fs from "node:fs/promises";

export default async function compileModule() {
  const bytes = await fs.readFile({{.Path}});
  return WebAssembly.compile(bytes);
}

export { compileModule };
{{end}}

{{- define "client-compile" -}}
import url from {{.URLSpecifier}};

export default async function compileModule() {
  return WebAssembly.compileStreaming(fetch(url));
}

export { compileModule };
{{end}}

{{- define "init-helper" -}}
import url from {{.URLSpecifier}};

export default async function instantiate(imports) {
  const result = await WebAssembly.instantiateStreaming(fetch(url), imports);
  return result.instance;
}
{{end}}
`))

type data struct {
	Path          string
	InitSpecifier string
	URLSpecifier  string
}

func newData(outputPath string) data {
	p := NormalizePath(outputPath)
	return data{
		Path:          jsString(p),
		InitSpecifier: jsString(p + InitQuery),
		URLSpecifier:  jsString(p + URLQuery),
	}
}

// Emit returns the module source for an artifact at outputPath.
// The text references nothing but the artifact, and is identical for
// identical arguments.
func Emit(outputPath string, ctx ExecutionContext, variant Variant) string {
	name := "client-compile"
	switch {
	case ctx == Server && variant == Instantiate:
		name = "server-init"
	case ctx == Client && variant == Instantiate:
		name = "client-init"
	case ctx == Server && variant == Compile:
		name = "server-compile"
	}
	return render(name, newData(outputPath))
}

// InitHelper returns the module behind `<artifact>?init` for hosts that do
// not provide one: it fetches the artifact's asset URL and instantiates it
// with streaming compilation.
func InitHelper(outputPath string) string {
	return render("init-helper", newData(outputPath))
}

// AssetSpecifier returns the import specifier of the artifact's asset URL.
func AssetSpecifier(outputPath string) string {
	return NormalizePath(outputPath) + URLQuery
}

// NormalizePath converts a filesystem path to forward slashes.
func NormalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(filepath.ToSlash(p), `\`, "/"))
}

func render(name string, d data) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, d); err != nil {
		// Templates are static and data is plain strings.
		panic(err)
	}
	return buf.String()
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}
