package config

import (
	"errors"
	"testing"

	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/search"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root"},
		Content: Content{Root: "/test/root/content"},
	}

	validator := NewValidator()
	if err := validator.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatalf("ValidateAndSetDefaults failed: %v", err)
	}

	if cfg.Content.ParallelWorkers < 1 {
		t.Errorf("ParallelWorkers should default to at least 1, got %d", cfg.Content.ParallelWorkers)
	}
	if cfg.Content.WatchDebounceMs != 300 {
		t.Errorf("WatchDebounceMs should default to 300, got %d", cfg.Content.WatchDebounceMs)
	}
	if cfg.Content.MaxFileSize == 0 {
		t.Errorf("MaxFileSize should have a default value")
	}
	if cfg.Search.StemMinLength != search.DefaultStemMinLength {
		t.Errorf("StemMinLength should default to %d, got %d", search.DefaultStemMinLength, cfg.Search.StemMinLength)
	}
	if cfg.Search.FuzzyThreshold != search.DefaultFuzzyThreshold {
		t.Errorf("FuzzyThreshold should default to %v, got %v", search.DefaultFuzzyThreshold, cfg.Search.FuzzyThreshold)
	}
	if cfg.Search.SuggestLimit != search.DefaultSuggestLimit {
		t.Errorf("SuggestLimit should default to %d, got %d", search.DefaultSuggestLimit, cfg.Search.SuggestLimit)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log should default to info/console, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Project.Name != "root" {
		t.Errorf("Name should default to the root base name, got %q", cfg.Project.Name)
	}
}

func TestValidateProjectConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validateProjectConfig(&Project{Root: "/test/root", Name: "test"}); err != nil {
		t.Errorf("Valid project config failed validation: %v", err)
	}

	if err := validator.validateProjectConfig(&Project{Name: "test"}); err == nil {
		t.Errorf("Empty root should fail validation")
	}
}

func TestValidateContentConfig(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		content Content
		wantErr bool
	}{
		{"valid", Content{Root: "/c", Include: []string{"**/*.json"}}, false},
		{"empty root", Content{}, true},
		{"negative debounce", Content{Root: "/c", WatchDebounceMs: -1}, true},
		{"negative workers", Content{Root: "/c", ParallelWorkers: -2}, true},
		{"negative max file size", Content{Root: "/c", MaxFileSize: -1}, true},
		{"oversized max file size", Content{Root: "/c", MaxFileSize: 200 * 1024 * 1024}, true},
		{"bad include pattern", Content{Root: "/c", Include: []string{"[unclosed"}}, true},
		{"bad exclude pattern", Content{Root: "/c", Exclude: []string{"{a,b"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := tt.content
			err := validator.validateContentConfig(&content)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContentConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSearchConfig(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		search  Search
		wantErr bool
	}{
		{"zero values", Search{}, false},
		{"valid", Search{MaxResults: 10, StemMinLength: 4, FuzzyThreshold: 0.8, SuggestLimit: 5}, false},
		{"negative max results", Search{MaxResults: -1}, true},
		{"negative stem length", Search{StemMinLength: -1}, true},
		{"threshold above one", Search{FuzzyThreshold: 1.5}, true},
		{"negative threshold", Search{FuzzyThreshold: -0.1}, true},
		{"negative suggest limit", Search{SuggestLimit: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.search
			err := validator.validateSearchConfig(&s)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSearchConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogConfig(t *testing.T) {
	validator := NewValidator()

	valid := []Log{{}, {Level: "debug", Format: "json"}, {Level: "WARN", Format: "console"}}
	for _, l := range valid {
		if err := validator.validateLogConfig(&l); err != nil {
			t.Errorf("validateLogConfig(%+v) failed: %v", l, err)
		}
	}

	invalid := []Log{{Level: "verbose"}, {Level: "info", Format: "xml"}}
	for _, l := range invalid {
		if err := validator.validateLogConfig(&l); err == nil {
			t.Errorf("validateLogConfig(%+v) should fail", l)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := Default("/test/root")
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	cfg = Default("/test/root")
	cfg.Search.FuzzyThreshold = 2
	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("invalid threshold should fail validation")
	}
	var cfgErr *caterrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Field != "search" {
		t.Errorf("expected field search, got %q", cfgErr.Field)
	}
}

func TestSetSmartDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root"},
		Content: Content{Root: "/test/root", ParallelWorkers: 6, WatchDebounceMs: 75},
		Search:  Search{FuzzyThreshold: 0.7},
	}

	NewValidator().setSmartDefaults(cfg)

	if cfg.Content.ParallelWorkers != 6 {
		t.Errorf("explicit ParallelWorkers should be kept, got %d", cfg.Content.ParallelWorkers)
	}
	if cfg.Content.WatchDebounceMs != 75 {
		t.Errorf("explicit WatchDebounceMs should be kept, got %d", cfg.Content.WatchDebounceMs)
	}
	if cfg.Search.FuzzyThreshold != 0.7 {
		t.Errorf("explicit FuzzyThreshold should be kept, got %v", cfg.Search.FuzzyThreshold)
	}
}
