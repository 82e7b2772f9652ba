package build

import (
	"github.com/woxQAQ/zig-wasm/pkg/options"
)

// DefaultOptimizerFlags are passed to wasm-opt when optimize is enabled
// without an explicit flag list: optimize for size, drop debug info.
var DefaultOptimizerFlags = []string{"-Oz", "--strip-debug"}

// Configuration is the fully resolved build configuration.
// CacheDir, CompilerCacheDir and CompilerBinary hold the requested values
// after Resolve and absolute paths after Activate.
type Configuration struct {
	CacheDir         string
	CompilerCacheDir string
	Optimize         Optimize
	CPU              CPUFeatures
	Memory           Memory
	ReleaseMode      options.ReleaseMode
	Strip            bool
	CompilerBinary   string
	ExtraArgs        []string
}

// Optimize is the resolved optimizer setting.
type Optimize struct {
	Enabled bool
	Flags   []string
}

// CPUFeatures are the WebAssembly target features passed with -mcpu.
type CPUFeatures struct {
	Baseline           bool
	SIMD128            bool
	SignExt            bool
	NonTrappingFPToInt bool
	BulkMemory         bool
}

// Memory is the resolved linear memory layout. Nil sizes are left to the linker.
type Memory struct {
	ImportMemory  bool
	InitialMemory *uint64
	MaxMemory     *uint64
	GlobalBase    *uint64
}

// Resolve merges user options with defaults. It never fails and performs no I/O.
func Resolve(opts options.Options) Configuration {
	cfg := Configuration{
		CacheDir:         opts.CacheDir,
		CompilerCacheDir: opts.Zig.CacheDir,
		CPU: CPUFeatures{
			Baseline:           boolOr(opts.CPU.Baseline, true),
			SIMD128:            boolOr(opts.CPU.SIMD128, true),
			SignExt:            boolOr(opts.CPU.SignExt, true),
			NonTrappingFPToInt: boolOr(opts.CPU.NonTrappingFPToInt, true),
			BulkMemory:         boolOr(opts.CPU.BulkMemory, true),
		},
		Memory: Memory{
			ImportMemory:  boolOr(opts.Memory.ImportMemory, true),
			InitialMemory: copyUint(opts.Memory.InitialMemory),
			MaxMemory:     copyUint(opts.Memory.MaxMemory),
			GlobalBase:    copyUint(opts.Memory.GlobalBase),
		},
		ReleaseMode:    opts.Zig.ReleaseMode,
		Strip:          opts.Zig.Strip,
		CompilerBinary: opts.Zig.BinPath,
		ExtraArgs:      append([]string(nil), opts.Zig.ExtraArgs...),
	}

	if cfg.ReleaseMode == "" {
		cfg.ReleaseMode = options.ReleaseFast
	}
	if cfg.CompilerBinary == "" {
		cfg.CompilerBinary = "zig"
	}

	if opts.Optimize.Enabled {
		cfg.Optimize.Enabled = true
		if opts.Optimize.Flags == nil {
			cfg.Optimize.Flags = append([]string(nil), DefaultOptimizerFlags...)
		} else {
			cfg.Optimize.Flags = append([]string{}, opts.Optimize.Flags...)
		}
	}

	return cfg
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func copyUint(n *uint64) *uint64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
