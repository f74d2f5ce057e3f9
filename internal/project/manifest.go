package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"blockfix/internal/anomaly"
	"blockfix/internal/outline"
	"blockfix/internal/rename"
)

// ErrInvalidConfig wraps every validation failure of a manifest.
var ErrInvalidConfig = errors.New("invalid blockfix.toml")

// Manifest is a loaded blockfix.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Tokens  TokensConfig  `toml:"tokens"`
	Indent  IndentConfig  `toml:"indent"`
	Repair  RepairConfig  `toml:"repair"`
	Rename  []rename.Pair `toml:"rename"`
	Targets TargetsConfig `toml:"targets"`
	Cache   CacheConfig   `toml:"cache"`
}

type TokensConfig struct {
	Suite []string `toml:"suite"`
	Test  []string `toml:"test"`
	Close string   `toml:"close"`
}

type IndentConfig struct {
	Unit     int `toml:"unit"`      // 0 = detect
	TabWidth int `toml:"tab_width"` // columns per tab
}

type RepairConfig struct {
	Misnested bool `toml:"misnested"`
	Jobs      int  `toml:"jobs"` // 0 = GOMAXPROCS
}

type TargetsConfig struct {
	Files []string `toml:"files"`
	Globs []string `toml:"globs"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultGlobs selects test files when a target is a directory.
var DefaultGlobs = []string{"*.spec.ts", "*.test.ts", "*.spec.js", "*.test.js", "*.test.jsx", "*.test.tsx"}

// Default returns the configuration used without a manifest.
func Default() Config {
	tokens := outline.DefaultTokens()
	return Config{
		Tokens:  TokensConfig{Suite: tokens.Suites, Test: tokens.Tests},
		Indent:  IndentConfig{TabWidth: 4},
		Repair:  RepairConfig{Misnested: true},
		Targets: TargetsConfig{Globs: append([]string(nil), DefaultGlobs...)},
	}
}

// TokenSet converts the [tokens] section.
func (c Config) TokenSet() outline.TokenSet {
	return outline.TokenSet{Suites: c.Tokens.Suite, Tests: c.Tokens.Test, Close: c.Tokens.Close}
}

// ScanOptions builds scanner options.
func (c Config) ScanOptions() outline.Options {
	return outline.Options{
		Tokens: c.TokenSet(),
		Style:  outline.IndentStyle{Unit: c.Indent.Unit, TabWidth: c.Indent.TabWidth},
	}
}

// DetectOptions builds detector options.
func (c Config) DetectOptions() anomaly.Options {
	return anomaly.Options{Misnested: c.Repair.Misnested}
}

// Validate checks values that decode fine but make no sense.
func (c Config) Validate() error {
	if err := c.TokenSet().Validate(); err != nil {
		return fmt.Errorf("%w: [tokens]: %w", ErrInvalidConfig, err)
	}
	if c.Indent.Unit < 0 || c.Indent.TabWidth < 0 {
		return fmt.Errorf("%w: [indent] values must not be negative", ErrInvalidConfig)
	}
	if c.Repair.Jobs < 0 {
		return fmt.Errorf("%w: [repair].jobs must not be negative", ErrInvalidConfig)
	}
	if err := rename.Validate(c.Rename); err != nil {
		return fmt.Errorf("%w: [[rename]]: %w", ErrInvalidConfig, err)
	}
	for _, g := range c.Targets.Globs {
		if _, err := filepath.Match(g, ""); err != nil {
			return fmt.Errorf("%w: [targets].globs: %q: %w", ErrInvalidConfig, g, err)
		}
	}
	return nil
}

// Load finds and decodes the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile decodes path on top of Default. Sections left out of the file
// keep their defaults.
func LoadFile(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if meta.IsDefined("tokens", "suite") && len(cfg.Tokens.Suite) == 0 {
		return nil, fmt.Errorf("%s: %w: [tokens].suite is empty", path, ErrInvalidConfig)
	}
	if meta.IsDefined("targets", "globs") && len(cfg.Targets.Globs) == 0 {
		cfg.Targets.Globs = append([]string(nil), DefaultGlobs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Resolve makes a manifest-relative target path absolute.
func (m *Manifest) Resolve(p string) string {
	if m == nil || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault creates dir/blockfix.toml and refuses to overwrite.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("already initialized: %s exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	data, err := Encode(Default())
	if err != nil {
		return "", err
	}
	header := []byte("# blockfix configuration\n\n")
	if err := os.WriteFile(path, append(header, data...), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
