// Package config loads sc.toml, the project file that sets parser and tool
// defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/sclang/sc/internal/encode"
	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/format"
	"github.com/sclang/sc/internal/parser"
)

// DefaultFile is looked up in the working directory when no -config flag is given
const DefaultFile = "sc.toml"

// Config holds project settings
type Config struct {
	Strict    bool   `toml:"strict" yaml:"strict"`
	Normalize bool   `toml:"normalize" yaml:"normalize"`
	Format    string `toml:"format" yaml:"format"`
	Jobs      int    `toml:"jobs" yaml:"jobs"`
	Requires  string `toml:"requires" yaml:"requires"`

	Serve ServeConfig `toml:"serve" yaml:"serve"`
	REPL  REPLConfig  `toml:"repl" yaml:"repl"`
	Fmt   FmtConfig   `toml:"fmt" yaml:"fmt"`

	// Path is the file the config was read from, empty for defaults
	Path string `toml:"-" yaml:"-"`
}

// ServeConfig configures the HTTP/3 front end
type ServeConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	Cert string `toml:"cert" yaml:"cert"`
	Key  string `toml:"key" yaml:"key"`
}

// REPLConfig configures the interactive shell
type REPLConfig struct {
	History string `toml:"history" yaml:"history"`
	Prompt  string `toml:"prompt" yaml:"prompt"`
}

// FmtConfig configures the formatter
type FmtConfig struct {
	Indent int  `toml:"indent" yaml:"indent"`
	Tabs   bool `toml:"tabs" yaml:"tabs"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Strict:    true,
		Normalize: true,
		Format:    string(encode.FormatDebug),
		Jobs:      runtime.NumCPU(),
		Serve:     ServeConfig{Addr: "localhost:4433"},
		REPL:      REPLConfig{History: ".sc_history", Prompt: "sc> "},
		Fmt:       FmtConfig{Indent: 4},
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.ReadFailed(path, err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return errors.InvalidConfig(path, err.Error())
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return errors.InvalidConfig(path, err.Error())
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.InvalidConfig(path, fmt.Sprintf("unknown key %q", undecoded[0].String()))
		}
	}
	return nil
}

// Validate checks field values and that toolVersion satisfies Requires
func (c *Config) Validate(toolVersion string) error {
	if _, err := encode.ParseFormat(c.Format); err != nil {
		return errors.InvalidConfig("format", err.Error())
	}
	if c.Jobs < 1 {
		return errors.InvalidConfig("jobs", fmt.Sprintf("must be at least 1, got %d", c.Jobs))
	}
	if c.Fmt.Indent < 1 || c.Fmt.Indent > 8 {
		return errors.InvalidConfig("fmt.indent", fmt.Sprintf("must be between 1 and 8, got %d", c.Fmt.Indent))
	}
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return errors.InvalidConfig("requires", err.Error())
	}
	v, err := semver.NewVersion(toolVersion)
	if err != nil {
		return errors.InvalidConfig("requires", fmt.Sprintf("tool version %q: %v", toolVersion, err))
	}
	if !constraint.Check(v) {
		return errors.IncompatibleVersion(toolVersion, c.Requires)
	}
	return nil
}

// OutputFormat returns the validated default output format
func (c *Config) OutputFormat() encode.Format {
	f, err := encode.ParseFormat(c.Format)
	if err != nil {
		return encode.FormatDebug
	}
	return f
}

// FormatOptions maps the config onto formatter options
func (c *Config) FormatOptions() format.Options {
	opts := format.DefaultOptions()
	opts.IndentSize = c.Fmt.Indent
	opts.PreferTabs = c.Fmt.Tabs
	return opts
}

// ParserOptions maps the config onto parser options
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Permissive: !c.Strict,
		Normalize:  c.Normalize,
	}
}
