// Package config loads the gll.toml settings shared by the command line
// tool and the language server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/dhamidi/gll/disambig"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "gll.toml"

// Config represents the TOML configuration structure.
type Config struct {
	Grammar string   `toml:"grammar"`
	Lexicon string   `toml:"lexicon"`
	Start   string   `toml:"start"`
	Skip    []string `toml:"skip"`

	Parse struct {
		DescriptorLimit int    `toml:"descriptor_limit"`
		Lookahead       bool   `toml:"lookahead"`
		Policy          string `toml:"policy"`
	} `toml:"parse"`

	Log struct {
		Verbosity int    `toml:"verbosity"`
		Path      string `toml:"path"`
	} `toml:"log"`

	dir string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{
		Skip: []string{"WhiteSpace", "Comment"},
	}
	c.Parse.Lookahead = true
	c.Parse.Policy = disambig.First.String()
	return c
}

// Load decodes path on top of Default and applies the GLL_* environment
// overrides. Relative grammar paths are resolved against the directory
// holding the file.
func Load(path string) (*Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	c.applyEnv()
	return c, nil
}

// Find loads FileName from dir when it exists and falls back to Default
// otherwise. The environment overrides apply either way.
func Find(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("find config: %w", err)
		}
		c := Default()
		c.dir = dir
		c.applyEnv()
		return c, nil
	}
	return Load(path)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GLL_GRAMMAR"); v != "" {
		c.Grammar = v
	}
	if v := os.Getenv("GLL_LEXICON"); v != "" {
		c.Lexicon = v
	}
	if v := os.Getenv("GLL_START"); v != "" {
		c.Start = v
	}
}

// GrammarPath returns the parser grammar path, resolved against the
// configuration file's directory.
func (c *Config) GrammarPath() string { return c.resolve(c.Grammar) }

// LexiconPath returns the lexical grammar path, or "" when none is
// configured; the lexical productions of the parser grammar file are used
// then.
func (c *Config) LexiconPath() string { return c.resolve(c.Lexicon) }

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Policy returns the disambiguation policy named by parse.policy.
func (c *Config) Policy() (disambig.Policy, error) {
	return disambig.ParsePolicy(c.Parse.Policy)
}

// Validate reports settings that cannot be used to run a parse.
func (c *Config) Validate() error {
	var errs []error
	if c.Grammar == "" {
		errs = append(errs, errors.New("grammar: no grammar file configured"))
	}
	if c.Parse.DescriptorLimit < 0 {
		errs = append(errs, fmt.Errorf("parse.descriptor_limit: must not be negative, got %d", c.Parse.DescriptorLimit))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("parse.policy: %w", err))
	}
	if c.Log.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("log.verbosity: must not be negative, got %d", c.Log.Verbosity))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
