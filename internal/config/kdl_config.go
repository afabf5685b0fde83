package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
	"go.uber.org/zap"

	caterrors "github.com/standardbeagle/medcat/internal/errors"
)

// LoadKDL loads dir/.medcat.kdl. It returns nil, nil when the file does not
// exist so callers can fall back to defaults.
func LoadKDL(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadFile(path)
}

// LoadFile parses one KDL config file. Relative roots resolve against the
// directory containing the file.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, caterrors.NewFileError("read", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		dir = filepath.Dir(path)
	}

	cfg, err := parseKDL(string(content), dir)
	if err != nil {
		return nil, caterrors.NewDecodeError(path, err)
	}
	return cfg, nil
}

// parseKDL walks the document starting from Default(dir)
func parseKDL(content, dir string) (*Config, error) {
	cfg := Default(dir)
	contentRoot := ""

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children { // project { name "cardiology-notes" }
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "content":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "root":
					if s, ok := firstStringArg(cn); ok {
						contentRoot = s
					}
				case "categories":
					if s, ok := firstStringArg(cn); ok {
						cfg.Content.Categories = s
					}
				case "include":
					cfg.Content.Include = collectStringArgs(cn)
				case "exclude":
					cfg.Content.Exclude = collectStringArgs(cn)
				case "watch":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Content.Watch = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Content.WatchDebounceMs = v
					}
				case "parallel_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Content.ParallelWorkers = v
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Content.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Content.MaxFileSize = sz
						}
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				case "stemming":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.Stemming = b
					}
				case "stem_min_length":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.StemMinLength = v
					}
				case "stem_exclusions":
					cfg.Search.StemExclusions = collectStringArgs(cn)
				case "fuzzy_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Search.FuzzyThreshold = v
					}
				case "suggest_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.SuggestLimit = v
					}
				}
			}
		case "log":
			for _, cn := range n.Children {
				assignSimpleString(cn, "level", func(v string) { cfg.Log.Level = v })
				assignSimpleString(cn, "format", func(v string) { cfg.Log.Format = v })
			}
		}
	}

	if contentRoot != "" {
		if filepath.IsAbs(contentRoot) {
			cfg.Content.Root = filepath.Clean(contentRoot)
		} else {
			cfg.Content.Root = filepath.Clean(filepath.Join(dir, contentRoot))
		}
	}
	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		zap.L().Warn("invalid float value in KDL config",
			zap.String("node", nodeName(n)),
			zap.String("type", fmt.Sprintf("%T", n.Arguments[0].Value)))
		return 0, false
	}
}

// collectStringArgs accepts both inline (include "a" "b") and block
// (include { "a"; "b" }) forms
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// in block form each string is a child node named by the string
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
