// Package options holds the user-facing configuration of the zig-wasm build plugin.
// Optional values are pointers; nil means "not configured" and the
// resolver in internal/build fills in the default.
package options

import (
	"fmt"
	"strings"
)

// Options is the full configuration surface accepted by the plugin.
type Options struct {
	// CacheDir stores generated .wasm files and the compiler cache.
	// Empty means: next to the nearest package.json, or under the session root.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`

	// Optimize runs wasm-opt over every artifact after the compiler.
	Optimize Optimize `mapstructure:"-" yaml:"optimize"`

	CPU    CPUOptions    `mapstructure:"cpu" yaml:"cpu"`
	Memory MemoryOptions `mapstructure:"memory" yaml:"memory"`
	Zig    ZigOptions    `mapstructure:"zig" yaml:"zig"`
}

// Optimize selects the optimizer pass.
type Optimize struct {
	Enabled bool
	// Flags replaces the default optimizer flags. nil keeps the defaults,
	// an empty non-nil slice runs wasm-opt with no extra flags.
	Flags []string
}

// OptimizeDefaults enables wasm-opt with the default flags.
func OptimizeDefaults() Optimize {
	return Optimize{Enabled: true}
}

// OptimizeWith enables wasm-opt with an explicit flag list.
func OptimizeWith(flags ...string) Optimize {
	if flags == nil {
		flags = []string{}
	}
	return Optimize{Enabled: true, Flags: flags}
}

// MarshalYAML renders the optimize option the way it is written in config files.
func (o Optimize) MarshalYAML() (interface{}, error) {
	if o.Enabled && o.Flags != nil {
		return o.Flags, nil
	}
	return o.Enabled, nil
}

// CPUOptions toggles WebAssembly target features.
// See `zig targets | jq .cpus.wasm32`.
type CPUOptions struct {
	Baseline           *bool `mapstructure:"baseline" yaml:"baseline,omitempty"`
	SIMD128            *bool `mapstructure:"simd128" yaml:"simd128,omitempty"`
	SignExt            *bool `mapstructure:"sign_ext" yaml:"sign_ext,omitempty"`
	NonTrappingFPToInt *bool `mapstructure:"nontrapping_fptoint" yaml:"nontrapping_fptoint,omitempty"`
	BulkMemory         *bool `mapstructure:"bulk_memory" yaml:"bulk_memory,omitempty"`
}

// MemoryOptions controls the linear memory of the produced module.
type MemoryOptions struct {
	ImportMemory  *bool   `mapstructure:"import_memory" yaml:"import_memory,omitempty"`
	InitialMemory *uint64 `mapstructure:"initial_memory" yaml:"initial_memory,omitempty"`
	MaxMemory     *uint64 `mapstructure:"max_memory" yaml:"max_memory,omitempty"`
	GlobalBase    *uint64 `mapstructure:"global_base" yaml:"global_base,omitempty"`
}

// ZigOptions affects the `zig build-exe` invocation.
type ZigOptions struct {
	ReleaseMode ReleaseMode `mapstructure:"release_mode" yaml:"release_mode,omitempty"`
	Strip       bool        `mapstructure:"strip" yaml:"strip"`
	BinPath     string      `mapstructure:"bin_path" yaml:"bin_path,omitempty"`
	CacheDir    string      `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
	ExtraArgs   []string    `mapstructure:"extra_args" yaml:"extra_args,omitempty"`
}

// ReleaseMode is the compiler optimization mode.
type ReleaseMode string

const (
	ReleaseFast  ReleaseMode = "fast"
	ReleaseSmall ReleaseMode = "small"
	ReleaseSafe  ReleaseMode = "safe"
	Debug        ReleaseMode = "debug"
)

// ZigName returns the spelling the compiler expects after -O.
func (m ReleaseMode) ZigName() string {
	switch m {
	case ReleaseSmall:
		return "ReleaseSmall"
	case ReleaseSafe:
		return "ReleaseSafe"
	case Debug:
		return "Debug"
	default:
		return "ReleaseFast"
	}
}

// ParseReleaseMode accepts both the short names and the compiler spellings,
// case-insensitively. An empty string yields ReleaseFast.
func ParseReleaseMode(s string) (ReleaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fast", "releasefast":
		return ReleaseFast, nil
	case "small", "releasesmall":
		return ReleaseSmall, nil
	case "safe", "releasesafe":
		return ReleaseSafe, nil
	case "debug":
		return Debug, nil
	}
	return "", fmt.Errorf("unknown release mode %q (must be one of: fast, small, safe, debug)", s)
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Uint64 returns a pointer to n.
func Uint64(n uint64) *uint64 { return &n }
