package wasm

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// Function is one imported or exported function.
type Function struct {
	Module  string   `yaml:"module,omitempty"`
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params"`
	Results []string `yaml:"results"`
}

// Signature renders the function as `name(i32, i32) -> i32`.
func (f Function) Signature() string {
	sig := f.Name + "(" + strings.Join(f.Params, ", ") + ")"
	if len(f.Results) > 0 {
		sig += " -> " + strings.Join(f.Results, ", ")
	}
	if f.Module != "" {
		sig = f.Module + "." + sig
	}
	return sig
}

// Memory is one imported or exported linear memory, sized in pages.
type Memory struct {
	Module string  `yaml:"module,omitempty"`
	Name   string  `yaml:"name"`
	Min    uint32  `yaml:"min"`
	Max    *uint32 `yaml:"max,omitempty"`
}

// Report lists what a compiled artifact imports and exports.
type Report struct {
	Source         string     `yaml:"source"`
	SizeBytes      int64      `yaml:"size_bytes"`
	ImportedFuncs  []Function `yaml:"imported_functions"`
	ExportedFuncs  []Function `yaml:"exported_functions"`
	ImportedMemory []Memory   `yaml:"imported_memories"`
	ExportedMemory []Memory   `yaml:"exported_memories"`
}

// ImportsMemory reports whether the module expects the host to supply its memory.
func (r *Report) ImportsMemory() bool {
	return len(r.ImportedMemory) > 0
}

// Inspect builds a Report from a compiled module.
func Inspect(m *CompiledModule) *Report {
	report := &Report{
		Source:    m.Source,
		SizeBytes: m.SizeBytes,
	}

	for _, def := range m.Module.ImportedFunctions() {
		module, name, _ := def.Import()
		report.ImportedFuncs = append(report.ImportedFuncs, function(module, name, def))
	}
	for name, def := range m.Module.ExportedFunctions() {
		report.ExportedFuncs = append(report.ExportedFuncs, function("", name, def))
	}
	for _, def := range m.Module.ImportedMemories() {
		module, name, _ := def.Import()
		report.ImportedMemory = append(report.ImportedMemory, memory(module, name, def))
	}
	for name, def := range m.Module.ExportedMemories() {
		report.ExportedMemory = append(report.ExportedMemory, memory("", name, def))
	}

	sort.Slice(report.ExportedFuncs, func(i, j int) bool {
		return report.ExportedFuncs[i].Name < report.ExportedFuncs[j].Name
	})
	sort.Slice(report.ExportedMemory, func(i, j int) bool {
		return report.ExportedMemory[i].Name < report.ExportedMemory[j].Name
	})

	return report
}

// Write prints the report in a human readable form.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d bytes)\n", r.Source, r.SizeBytes)

	b.WriteString("imports:\n")
	for _, f := range r.ImportedFuncs {
		fmt.Fprintf(&b, "  func   %s\n", f.Signature())
	}
	for _, m := range r.ImportedMemory {
		fmt.Fprintf(&b, "  memory %s.%s %s\n", m.Module, m.Name, m.limits())
	}

	b.WriteString("exports:\n")
	for _, f := range r.ExportedFuncs {
		fmt.Fprintf(&b, "  func   %s\n", f.Signature())
	}
	for _, m := range r.ExportedMemory {
		fmt.Fprintf(&b, "  memory %s %s\n", m.Name, m.limits())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (m Memory) limits() string {
	if m.Max == nil {
		return fmt.Sprintf("{min: %d}", m.Min)
	}
	return fmt.Sprintf("{min: %d, max: %d}", m.Min, *m.Max)
}

func function(module, name string, def api.FunctionDefinition) Function {
	return Function{
		Module:  module,
		Name:    name,
		Params:  typeNames(def.ParamTypes()),
		Results: typeNames(def.ResultTypes()),
	}
}

func memory(module, name string, def api.MemoryDefinition) Memory {
	mem := Memory{Module: module, Name: name, Min: def.Min()}
	if limit, ok := def.Max(); ok {
		mem.Max = &limit
	}
	return mem
}

func typeNames(types []api.ValueType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return names
}
