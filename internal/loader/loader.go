// Package loader reads content records and the category registry from a
// content directory
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/medcat/internal/category"
	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/logging"
	"github.com/standardbeagle/medcat/internal/security"
	"github.com/standardbeagle/medcat/internal/types"
)

// DefaultCategoriesFile is the registry file name looked up under the root
const DefaultCategoriesFile = "categories.toml"

// DefaultInclude matches every supported content file
var DefaultInclude = []string{"**/*.json", "**/*.yaml", "**/*.yml"}

// DefaultExclude skips tooling directories
var DefaultExclude = []string{"**/.git/**", "**/node_modules/**"}

// Options locate content on disk
type Options struct {
	Root           string
	CategoriesFile string // relative to Root unless absolute
	Include        []string
	Exclude        []string
	Workers        int   // 0 = GOMAXPROCS
	MaxFileSize    int64 // 0 = types.DefaultMaxRecordFileSize
}

// Loader reads a content directory. It satisfies catalog.Source.
type Loader struct {
	opts      Options
	fsys      fs.FS
	validator *security.FileValidator
	logger    *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Loader {
	if len(opts.Include) == 0 {
		opts.Include = DefaultInclude
	}
	if opts.Exclude == nil {
		opts.Exclude = DefaultExclude
	}
	if opts.CategoriesFile == "" {
		opts.CategoriesFile = DefaultCategoriesFile
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = types.DefaultMaxRecordFileSize
	}
	return &Loader{
		opts:      opts,
		fsys:      os.DirFS(opts.Root),
		validator: security.NewFileValidator(),
		logger:    logging.OrNop(logger),
	}
}

// Root returns the content directory
func (l *Loader) Root() string {
	return l.opts.Root
}

// CategoriesPath returns the resolved registry file path
func (l *Loader) CategoriesPath() string {
	if filepath.IsAbs(l.opts.CategoriesFile) {
		return l.opts.CategoriesFile
	}
	return filepath.Join(l.opts.Root, l.opts.CategoriesFile)
}

// Matches reports whether a slash-separated path relative to Root is a
// content file
func (l *Loader) Matches(rel string) bool {
	for _, pattern := range l.opts.Exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return false
		}
	}
	for _, pattern := range l.opts.Include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// Discover returns the content files under Root, relative and sorted
func (l *Loader) Discover() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range l.opts.Include {
		matches, err := doublestar.Glob(l.fsys, pattern)
		if err != nil {
			return nil, caterrors.NewConfigError("content.include", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || !l.Matches(m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadRecords decodes every content file concurrently. Records come back
// in sorted path order, then file order. Per-file failures are collected
// into one *errors.MultiError of *errors.FileError so all broken files are
// reported together.
func (l *Loader) LoadRecords(ctx context.Context) ([]types.ContentRecord, error) {
	if _, err := os.Stat(l.opts.Root); err != nil {
		return nil, caterrors.NewFileError("stat", l.opts.Root, err)
	}

	files, err := l.Discover()
	if err != nil {
		return nil, err
	}

	perFile := make([][]types.ContentRecord, len(files))
	fileErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i], fileErrs[i] = l.readFile(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if multi := caterrors.NewMultiError(fileErrs); len(multi.Errors) > 0 {
		return nil, multi
	}

	var out []types.ContentRecord
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	l.logger.Debug("content files decoded",
		zap.String("root", l.opts.Root),
		zap.Int("files", len(files)),
		zap.Int("records", len(out)))
	return out, nil
}

func (l *Loader) readFile(rel string) ([]types.ContentRecord, error) {
	full := filepath.Join(l.opts.Root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return nil, caterrors.NewFileError("stat", full, err)
	}
	if info.Size() > l.opts.MaxFileSize {
		return nil, caterrors.NewFileError("read", full,
			fmt.Errorf("file is %d bytes, limit is %d", info.Size(), l.opts.MaxFileSize))
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, caterrors.NewFileError("read", full, err)
	}
	if err := l.validator.ValidateContent(rel, data); err != nil {
		return nil, caterrors.NewRejectedFileError(full, err)
	}
	recs, err := DecodeRecords(rel, data)
	if err != nil {
		return nil, caterrors.NewDecodeError(full, err)
	}
	return recs, nil
}

type registryFile struct {
	Categories map[string][]string `toml:"categories"`
}

// LoadCategories reads the category registry. A missing registry is an
// empty grouping, not an error.
func (l *Loader) LoadCategories() (category.Grouping, error) {
	p := l.CategoriesPath()
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no category registry", zap.String("path", p))
		return category.Grouping{}, nil
	}
	if err != nil {
		return nil, caterrors.NewFileError("read", p, err)
	}
	return DecodeCategories(p, data)
}

// DecodeCategories parses a TOML registry:
//
//	[categories]
//	psychiatry = ["condition-adhd", "condition-generalized-anxiety-disorder"]
func DecodeCategories(name string, data []byte) (category.Grouping, error) {
	var reg registryFile
	if err := toml.Unmarshal(data, &reg); err != nil {
		return nil, caterrors.NewDecodeError(name, err)
	}

	out := make(category.Grouping, len(reg.Categories))
	for cat, ids := range reg.Categories {
		members := make([]types.RecordID, len(ids))
		for i, id := range ids {
			members[i] = types.RecordID(id)
		}
		out[cat] = members
	}
	return out, nil
}

// Load reads records and categories, wrapping failures in *errors.LoadError
func (l *Loader) Load(ctx context.Context) ([]types.ContentRecord, category.Grouping, error) {
	records, err := l.LoadRecords(ctx)
	if err != nil {
		return nil, nil, caterrors.NewLoadError(l.opts.Root, err)
	}
	categories, err := l.LoadCategories()
	if err != nil {
		return nil, nil, caterrors.NewLoadError(l.opts.Root, err)
	}
	return records, categories, nil
}
