package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/medcat/internal/loader"
	"github.com/standardbeagle/medcat/internal/search"
	"github.com/standardbeagle/medcat/internal/types"
)

// FileName is the per-project configuration file
const FileName = ".medcat.kdl"

type Config struct {
	Version int
	Project Project
	Content Content
	Search  Search
	Log     Log
}

type Project struct {
	Root string // directory holding .medcat.kdl
	Name string
}

type Content struct {
	Root            string // content directory, relative paths resolve against Project.Root
	Categories      string // category registry, relative to Root
	Include         []string
	Exclude         []string
	Watch           bool // reload on file changes
	WatchDebounceMs int
	ParallelWorkers int   // 0 = auto-detect
	MaxFileSize     int64 // bytes per content file
}

type Search struct {
	MaxResults     int // 0 = unlimited
	Stemming       bool
	StemMinLength  int
	StemExclusions []string // words the stemmer leaves alone
	FuzzyThreshold float64  // Jaro-Winkler similarity, 0..1
	SuggestLimit   int
}

type Log struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Default returns the configuration used when no .medcat.kdl exists
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: filepath.Base(root)},
		Content: Content{
			Root:            root,
			Categories:      loader.DefaultCategoriesFile,
			Include:         append([]string(nil), loader.DefaultInclude...),
			Exclude:         append([]string(nil), loader.DefaultExclude...),
			Watch:           false,
			WatchDebounceMs: 300,
			ParallelWorkers: 0,
			MaxFileSize:     types.DefaultMaxRecordFileSize,
		},
		Search: Search{
			MaxResults:     50,
			Stemming:       true,
			StemMinLength:  search.DefaultStemMinLength,
			FuzzyThreshold: search.DefaultFuzzyThreshold,
			SuggestLimit:   search.DefaultSuggestLimit,
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Load reads an explicit config file when path is set, otherwise looks for
// .medcat.kdl in rootDir (or the working directory). The result is
// validated and has defaults applied.
func Load(path, rootDir string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = LoadFile(path)
	} else {
		cfg, err = LoadWithRoot(rootDir)
	}
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithRoot merges ~/.medcat.kdl (if any) with rootDir/.medcat.kdl (if
// any). Project settings win; exclusions from both are kept.
func LoadWithRoot(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		searchDir = cwd
	}
	if abs, err := filepath.Abs(searchDir); err == nil {
		searchDir = abs
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != searchDir {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}

	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		// global settings, but content lives in the project directory
		baseConfig.Project = Project{Root: searchDir, Name: filepath.Base(searchDir)}
		baseConfig.Content.Root = searchDir
		return baseConfig, nil
	}
	return Default(searchDir), nil
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Content.Exclude) > 0 {
		merged.Content.Exclude = DeduplicatePatterns(append(
			append([]string(nil), base.Content.Exclude...),
			project.Content.Exclude...))
	}

	// project inclusions replace base inclusions entirely
	if len(project.Content.Include) == 0 && len(base.Content.Include) > 0 {
		merged.Content.Include = base.Content.Include
	}
	return &merged
}

// DeduplicatePatterns removes repeated patterns, keeping first occurrence order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// LoaderOptions maps the content section onto loader options
func (c *Config) LoaderOptions() loader.Options {
	return loader.Options{
		Root:           c.Content.Root,
		CategoriesFile: c.Content.Categories,
		Include:        c.Content.Include,
		Exclude:        c.Content.Exclude,
		Workers:        c.Content.ParallelWorkers,
		MaxFileSize:    c.Content.MaxFileSize,
	}
}

// SearchOptions maps the search section onto engine options
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		MaxResults:     c.Search.MaxResults,
		Stemming:       c.Search.Stemming,
		StemMinLength:  c.Search.StemMinLength,
		StemExclusions: c.Search.StemExclusions,
		FuzzyThreshold: c.Search.FuzzyThreshold,
		SuggestLimit:   c.Search.SuggestLimit,
	}
}

// WatchDebounce returns the watch debounce as a duration
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Content.WatchDebounceMs) * time.Millisecond
}
