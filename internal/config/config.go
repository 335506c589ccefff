// Package config resolves lore settings from the config file, LORE_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/mod/semver"

	"github.com/untoldecay/lorebook/internal/layout"
	"github.com/untoldecay/lorebook/internal/loader"
)

// EnvPrefix is prepended to every environment override, e.g. LORE_OUTPUT_DIR.
const EnvPrefix = "LORE"

// Candidate config file locations, relative to each directory walked.
var configNames = []string{
	filepath.Join(".lore", "config.yaml"),
	"lore.yaml",
}

// Config is the resolved configuration of one invocation.
type Config struct {
	// File is the config file that was read, empty when none was found.
	File string

	Root            string
	OutputDir       string
	Workers         int
	Spacing         float64
	Orphans         layout.Policy
	LogLevel        string
	LogFormat       string
	LogFile         string
	Debounce        time.Duration
	RequiredVersion string

	Paths loader.Paths
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config path. It must exist when set.
	File string
	// Dir is where discovery starts. Defaults to the working directory.
	Dir string
	// Flags are bound to config keys of the same name.
	Flags *pflag.FlagSet
}

// FlagKeys maps persistent flag names to the config keys they override.
var FlagKeys = map[string]string{
	"root":       "root",
	"out":        "output.dir",
	"workers":    "workers",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"orphans":    "layout.orphans",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// LORE_OUTPUT_DIR maps to output.dir, LORE_REQUIRED_VERSION to
	// required-version.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("root", ".")
	v.SetDefault("output.dir", filepath.Join("site", "data"))
	v.SetDefault("workers", 0)
	v.SetDefault("layout.spacing", layout.DefaultSpacing)
	v.SetDefault("layout.orphans", string(layout.Prune))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("required-version", "")

	// Source overrides are relative to root; empty means conventional.
	for _, key := range []string{"characters", "locations", "maps", "links", "relations", "vocabulary"} {
		v.SetDefault("paths."+key, "")
	}
	return v
}

// Discover walks up from dir looking for a config file and returns the
// first match, or "" when there is none.
func Discover(dir string) string {
	for d := dir; ; d = filepath.Dir(d) {
		for _, name := range configNames {
			candidate := filepath.Join(d, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		if d == filepath.Dir(d) {
			return ""
		}
	}
}

// Load resolves the configuration. Precedence, highest first: flags that
// were set, environment, config file, defaults. Relative paths in a config
// file are resolved against the directory containing its project, so the
// tool works from any subdirectory.
func Load(opts Options) (*Config, error) {
	v := newViper()

	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	file := opts.File
	if file == "" {
		file = Discover(dir)
	} else if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		File:            v.ConfigFileUsed(),
		OutputDir:       v.GetString("output.dir"),
		Workers:         v.GetInt("workers"),
		Spacing:         v.GetFloat64("layout.spacing"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		LogFile:         v.GetString("log.file"),
		Debounce:        v.GetDuration("watch.debounce"),
		RequiredVersion: v.GetString("required-version"),
	}

	base := dir
	if file != "" && !flagChanged(opts.Flags, "root") {
		base = projectDir(file)
	}
	cfg.Root = resolve(base, v.GetString("root"))
	if !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(cfg.Root, cfg.OutputDir)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Spacing <= 0 {
		return nil, fmt.Errorf("layout.spacing must be positive, got %v", cfg.Spacing)
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("watch.debounce must be positive, got %v", cfg.Debounce)
	}
	policy, err := layout.ParsePolicy(v.GetString("layout.orphans"))
	if err != nil {
		return nil, fmt.Errorf("layout.orphans: %w", err)
	}
	cfg.Orphans = policy

	cfg.Paths = loader.DefaultPaths(cfg.Root)
	overrides := []struct {
		key string
		dst *string
	}{
		{"paths.characters", &cfg.Paths.Characters},
		{"paths.locations", &cfg.Paths.Locations},
		{"paths.maps", &cfg.Paths.Maps},
		{"paths.links", &cfg.Paths.Links},
		{"paths.relations", &cfg.Paths.Relations},
		{"paths.vocabulary", &cfg.Paths.Vocabulary},
	}
	for _, o := range overrides {
		if p := v.GetString(o.key); p != "" {
			*o.dst = resolve(cfg.Root, p)
		}
	}

	return cfg, nil
}

// projectDir is the directory a config file describes: the parent of a
// .lore directory, or the file's own directory for lore.yaml.
func projectDir(file string) string {
	dir := filepath.Dir(file)
	if filepath.Base(dir) == ".lore" {
		return filepath.Dir(dir)
	}
	return dir
}

func flagChanged(fs *pflag.FlagSet, name string) bool {
	if fs == nil {
		return false
	}
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// CheckRequiredVersion fails when the running version does not satisfy the
// configured minimum. Versions may omit the leading "v". Development builds
// with a non-semver version are never rejected.
func (c *Config) CheckRequiredVersion(current string) error {
	if c.RequiredVersion == "" {
		return nil
	}
	required := canonical(c.RequiredVersion)
	if !semver.IsValid(required) {
		return fmt.Errorf("required-version %q is not a valid semantic version", c.RequiredVersion)
	}
	have := canonical(current)
	if !semver.IsValid(have) {
		return nil
	}
	if semver.Compare(have, required) < 0 {
		return fmt.Errorf("this project requires lore %s or newer (running %s)", required, have)
	}
	return nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
