// Package config loads plugin options for the zigwasm command from a config
// file, a .env file and ZIGWASM_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/woxQAQ/zig-wasm/pkg/options"
)

// EnvPrefix prefixes every environment override, e.g. ZIGWASM_ZIG_BIN_PATH.
const EnvPrefix = "ZIGWASM"

type Config struct {
	LogLevel string          `mapstructure:"log_level" yaml:"log_level"`
	Options  options.Options `mapstructure:",squash" yaml:",inline"`
	Inspect  InspectConfig   `mapstructure:"inspect" yaml:"inspect"`
}

// InspectConfig holds the wazero runtime settings used by `zigwasm inspect`.
type InspectConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages" yaml:"memory_pages"`
	// Compilation cache directory. Empty disables the on-disk cache.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
}

// InvalidValueError occurs when a key holds a value of the wrong shape.
type InvalidValueError struct {
	Key   string
	Value interface{}
	Want  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for '%s': %v (want %s)", e.Key, e.Value, e.Want)
}

// optionKeys are bound to the environment explicitly; they have no defaults,
// so AutomaticEnv alone would never surface them to Unmarshal.
var optionKeys = []string{
	"cache_dir",
	"optimize",
	"cpu.baseline",
	"cpu.simd128",
	"cpu.sign_ext",
	"cpu.nontrapping_fptoint",
	"cpu.bulk_memory",
	"memory.import_memory",
	"memory.initial_memory",
	"memory.max_memory",
	"memory.global_base",
	"zig.release_mode",
	"zig.bin_path",
	"zig.cache_dir",
	"zig.extra_args",
}

// Load reads configPath (optional) and applies environment overrides.
// Keys that are never set stay nil in the returned options, leaving the
// build defaults to the resolver.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("zig.strip", false)
	v.SetDefault("inspect.memory_pages", 256) // 16MB
	v.SetDefault("inspect.cache_dir", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range optionKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cacheDir, err := decodeCacheDir(v.Get("cache_dir"))
	if err != nil {
		return nil, err
	}
	cfg.Options.CacheDir = cacheDir

	optimize, err := decodeOptimize(v.Get("optimize"))
	if err != nil {
		return nil, err
	}
	cfg.Options.Optimize = optimize

	mode, err := options.ParseReleaseMode(string(cfg.Options.Zig.ReleaseMode))
	if err != nil {
		return nil, err
	}
	cfg.Options.Zig.ReleaseMode = mode

	if s, ok := v.Get("zig.extra_args").(string); ok {
		cfg.Options.Zig.ExtraArgs = strings.Fields(s)
	}

	return &cfg, nil
}

// decodeCacheDir accepts a path, or false for the default placement.
func decodeCacheDir(value interface{}) (string, error) {
	switch val := value.(type) {
	case nil:
		return "", nil
	case bool:
		if val {
			return "", &InvalidValueError{Key: "cache_dir", Value: value, Want: "a path or false"}
		}
		return "", nil
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &InvalidValueError{Key: "cache_dir", Value: value, Want: "a path or false"}
	}
	if strings.EqualFold(s, "false") {
		return "", nil
	}
	return s, nil
}

// decodeOptimize accepts a boolean or a list of wasm-opt flags. A string that
// is not a boolean is split on whitespace into flags.
func decodeOptimize(value interface{}) (options.Optimize, error) {
	switch val := value.(type) {
	case nil:
		return options.Optimize{}, nil
	case []interface{}, []string:
		flags, err := cast.ToStringSliceE(val)
		if err != nil {
			return options.Optimize{}, &InvalidValueError{Key: "optimize", Value: value, Want: "a boolean or a list of flags"}
		}
		return options.OptimizeWith(flags...), nil
	case string:
		if b, err := cast.ToBoolE(val); err == nil {
			return options.Optimize{Enabled: b}, nil
		}
		return options.OptimizeWith(strings.Fields(val)...), nil
	}

	b, err := cast.ToBoolE(value)
	if err != nil {
		return options.Optimize{}, &InvalidValueError{Key: "optimize", Value: value, Want: "a boolean or a list of flags"}
	}
	return options.Optimize{Enabled: b}, nil
}
