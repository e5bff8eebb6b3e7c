package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/gll/config"
	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/project"
)

type globalFlags struct {
	configPath string
	grammar    string
	lexicon    string
	start      string
	verbose    int
}

// config loads the configuration file and applies the command line
// overrides on top of it.
func (f *globalFlags) config() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, err = config.Find(".")
	}
	if err != nil {
		return nil, err
	}

	// Paths given on the command line are relative to the working
	// directory, so make them absolute before the config resolves them.
	if f.grammar != "" {
		cfg.Grammar = absPath(f.grammar)
	}
	if f.lexicon != "" {
		cfg.Lexicon = absPath(f.lexicon)
	}
	if f.start != "" {
		cfg.Start = f.start
	}
	if cfg.Log.Verbosity > f.verbose {
		commonlog.Configure(cfg.Log.Verbosity, logPath(cfg))
	}
	return cfg, nil
}

func (f *globalFlags) project() (*project.Project, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return project.New(cfg)
}

func (f *globalFlags) parseFile(filename string) (*project.Project, *project.Document, error) {
	p, err := f.project()
	if err != nil {
		return nil, nil, err
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	doc, err := p.Parse(filename, src)
	if err != nil {
		return nil, nil, err
	}
	return p, doc, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func logPath(cfg *config.Config) *string {
	if cfg.Log.Path == "" {
		return nil
	}
	return &cfg.Log.Path
}

var errorLabel = color.New(color.FgHiRed, color.Bold).Sprint

// printDiagnostics writes the errors on the first failing line, the way a
// compiler reports a syntax error.
func printDiagnostics(errs []*diag.Error) {
	for _, e := range diag.FirstLine(errs) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorLabel("error:"), e)
	}
	if rest := len(errs) - len(diag.FirstLine(errs)); rest > 0 {
		fmt.Fprintf(os.Stderr, "%d more error(s) on other lines\n", rest)
	}
}
