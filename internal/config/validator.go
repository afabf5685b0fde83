package config

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/logging"
	"github.com/standardbeagle/medcat/internal/search"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns a *errors.ConfigError naming the first invalid field
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return caterrors.NewConfigError("project", cfg.Project.Root, err)
	}

	if err := v.validateContentConfig(&cfg.Content); err != nil {
		return caterrors.NewConfigError("content", cfg.Content.Root, err)
	}

	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return caterrors.NewConfigError("search", "", err)
	}

	if err := v.validateLogConfig(&cfg.Log); err != nil {
		return caterrors.NewConfigError("log", cfg.Log.Level+"/"+cfg.Log.Format, err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateContentConfig(content *Content) error {
	if content.Root == "" {
		return errors.New("content root cannot be empty")
	}
	if content.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms cannot be negative, got %d", content.WatchDebounceMs)
	}
	if content.ParallelWorkers < 0 {
		return fmt.Errorf("parallel_workers cannot be negative, got %d", content.ParallelWorkers)
	}
	if content.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative, got %d", content.MaxFileSize)
	}
	if content.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("max_file_size should not exceed 100MB, got %d", content.MaxFileSize)
	}
	for _, p := range append(append([]string(nil), content.Include...), content.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

func (v *Validator) validateSearchConfig(s *Search) error {
	if s.MaxResults < 0 {
		return fmt.Errorf("max_results cannot be negative, got %d", s.MaxResults)
	}
	if s.StemMinLength < 0 {
		return fmt.Errorf("stem_min_length cannot be negative, got %d", s.StemMinLength)
	}
	if s.FuzzyThreshold < 0 || s.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 1, got %s",
			strconv.FormatFloat(s.FuzzyThreshold, 'f', -1, 64))
	}
	if s.SuggestLimit < 0 {
		return fmt.Errorf("suggest_limit cannot be negative, got %d", s.SuggestLimit)
	}
	return nil
}

func (v *Validator) validateLogConfig(l *Log) error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Format {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("log format must be json or console, got %q", l.Format)
}

// setSmartDefaults applies defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	// cores-1 leaves headroom for the MCP client, minimum of 1
	if cfg.Content.ParallelWorkers == 0 {
		cfg.Content.ParallelWorkers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Content.WatchDebounceMs == 0 {
		cfg.Content.WatchDebounceMs = 300
	}
	if cfg.Content.MaxFileSize == 0 {
		cfg.Content.MaxFileSize = Default(cfg.Project.Root).Content.MaxFileSize
	}
	if cfg.Search.StemMinLength == 0 {
		cfg.Search.StemMinLength = search.DefaultStemMinLength
	}
	if cfg.Search.FuzzyThreshold == 0 {
		cfg.Search.FuzzyThreshold = search.DefaultFuzzyThreshold
	}
	if cfg.Search.SuggestLimit == 0 {
		cfg.Search.SuggestLimit = search.DefaultSuggestLimit
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = Default(cfg.Project.Root).Project.Name
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
