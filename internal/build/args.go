package build

import (
	"strconv"
	"strings"
)

// BuildArgs returns the `zig` arguments that compile source into a
// freestanding wasm32 module at output.
//
// Order: target, entry suppression, export visibility, -mcpu, memory flags,
// output, release mode, compiler cache, strip, extra args, source.
// Flags whose option is not configured are left out.
func BuildArgs(cfg Configuration, source, output string) []string {
	args := []string{
		"build-exe",
		"-target", "wasm32-freestanding",
		"-fno-entry",
		"-rdynamic",
	}

	if cpu := CPUFeatureString(cfg.CPU); cpu != "" {
		args = append(args, "-mcpu="+cpu)
	}

	if cfg.Memory.ImportMemory {
		args = append(args, "--import-memory")
	}
	if cfg.Memory.GlobalBase != nil {
		args = append(args, "--global-base="+strconv.FormatUint(*cfg.Memory.GlobalBase, 10))
	}
	if cfg.Memory.InitialMemory != nil {
		args = append(args, "--initial-memory="+strconv.FormatUint(*cfg.Memory.InitialMemory, 10))
	}
	if cfg.Memory.MaxMemory != nil {
		args = append(args, "--max-memory="+strconv.FormatUint(*cfg.Memory.MaxMemory, 10))
	}

	args = append(args, "-femit-bin="+output)
	args = append(args, "-O", cfg.ReleaseMode.ZigName())

	if cfg.CompilerCacheDir != "" {
		args = append(args, "--cache-dir", cfg.CompilerCacheDir)
	}
	if cfg.Strip {
		args = append(args, "-fstrip")
	}

	for _, a := range cfg.ExtraArgs {
		if a != "" {
			args = append(args, a)
		}
	}

	return append(args, source)
}

// CPUFeatureString joins the enabled features with '+' in a fixed order.
// It returns "" when no feature is enabled.
func CPUFeatureString(cpu CPUFeatures) string {
	var features []string
	if cpu.Baseline {
		features = append(features, "baseline")
	}
	if cpu.SIMD128 {
		features = append(features, "simd128")
	}
	if cpu.SignExt {
		features = append(features, "sign_ext")
	}
	if cpu.NonTrappingFPToInt {
		features = append(features, "nontrapping_fptoint")
	}
	if cpu.BulkMemory {
		features = append(features, "bulk_memory")
	}
	return strings.Join(features, "+")
}

// OptimizerArgs returns the wasm-opt arguments that optimize input into output.
func OptimizerArgs(cfg Configuration, input, output string) []string {
	args := []string{input, "-o", output}
	return append(args, cfg.Optimize.Flags...)
}
