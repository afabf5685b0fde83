package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/medcat/internal/catalog"
	"github.com/standardbeagle/medcat/internal/display"
	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/mcp"
	"github.com/standardbeagle/medcat/internal/search"
	"github.com/standardbeagle/medcat/internal/types"
	"github.com/standardbeagle/medcat/internal/version"
	"github.com/standardbeagle/medcat/internal/watch"
	"github.com/standardbeagle/medcat/pkg/pathutil"
)

// problemLines flattens aggregate errors so each broken file or field is
// reported on its own line. File paths are shown relative to root.
func problemLines(err error, root string) []string {
	if fe, ok := err.(*caterrors.FileError); ok {
		return []string{fmt.Sprintf("%s: %s failed: %v", pathutil.ToRelative(fe.Path, root), fe.Operation, fe.Underlying)}
	}
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var lines []string
		for _, e := range multi.Unwrap() {
			lines = append(lines, problemLines(e, root)...)
		}
		return lines
	}
	return []string{err.Error()}
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if arg == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return arg, nil
}

func validateCommand(c *cli.Context) error {
	env, err := setup(c)
	if env != nil {
		defer func() { _ = env.logger.Sync() }()
	}
	if err != nil {
		root := ""
		if env != nil {
			root = env.cfg.Content.Root
		}
		lines := problemLines(err, root)
		for _, line := range lines {
			fmt.Fprintf(c.App.Writer, "✗ %s\n", line)
		}
		return fmt.Errorf("catalog is invalid: %d problem(s)", len(lines))
	}

	snap, err := env.holder.Snapshot()
	if err != nil {
		return err
	}
	st := snap.Stats()
	for _, w := range snap.Warnings() {
		fmt.Fprintf(c.App.Writer, "! %s\n", w)
	}
	fmt.Fprintf(c.App.Writer, "✓ %d records, %d categories, %d ICD-11 mapped, %d emergencies, %d dangling reference(s)\n",
		st.Records, st.Categories, st.Mapped, st.Emergencies, st.Dangling)
	return nil
}

func getCommand(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	id, err := requireArg(c, "record id")
	if err != nil {
		return err
	}
	rec, err := snap.GetEntry(types.RecordID(id))
	if err != nil {
		if caterrors.IsNotFound(err) {
			if sugg := snap.Suggest(id, 3); len(sugg) > 0 {
				return fmt.Errorf("%w (did you mean %s?)", err, sugg[0].ID)
			}
		}
		return err
	}

	opts := display.FormatterOptions{ShowLevels: true, Level: c.Int("level")}
	if c.Bool("json") {
		opts.Format = "json"
	}
	fmt.Fprintln(c.App.Writer, display.NewRecordFormatter(opts).FormatRecord(rec, snap.CategoriesOf(rec.ID)))
	return nil
}

func searchCommand(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	// a blank query prints an empty result
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	hits := snap.Search(query)
	if c.Bool("emergencies") {
		hits = search.Filter(hits, search.Emergency)
	}
	total := len(hits)
	hits, truncated := snap.Limit(hits, 0)

	var suggestions []search.Suggestion
	if len(hits) == 0 && query != "" {
		suggestions = snap.Suggest(query, 0)
	}

	opts := display.FormatterOptions{}
	if c.Bool("json") {
		opts.Format = "json"
	}
	fmt.Fprint(c.App.Writer, display.NewRecordFormatter(opts).FormatHits(query, hits, suggestions))
	if opts.Format == "json" {
		fmt.Fprintln(c.App.Writer)
	} else if truncated {
		fmt.Fprintf(c.App.Writer, "showing %d of %d, raise search max_results to see more\n", len(hits), total)
	}
	return nil
}

func categoryCommand(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	name := strings.TrimSpace(c.Args().First())
	if name == "" {
		for _, cat := range snap.Categories() {
			fmt.Fprintf(c.App.Writer, "%-30s %d\n", cat, snap.CategoryCount(cat))
		}
		return nil
	}

	if !snap.HasCategory(name) {
		fmt.Fprintf(c.App.Writer, "Unknown category %q, known: %s\n", name, strings.Join(snap.Categories(), ", "))
		return nil
	}
	records := snap.GetByCategory(name)
	if len(records) == 0 {
		fmt.Fprintf(c.App.Writer, "No records in category %q\n", name)
		return nil
	}
	f := display.NewRecordFormatter(display.FormatterOptions{Format: "compact"})
	for _, rec := range records {
		fmt.Fprintln(c.App.Writer, f.FormatRecord(rec, nil))
	}
	return nil
}

func icd11Command(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	if c.Bool("fhir") {
		return printJSON(c, snap.ValueSet(c.String("url")))
	}
	for _, m := range snap.Mappings() {
		fmt.Fprintf(c.App.Writer, "%-45s %s\n", m.ID, m.Code)
	}
	return nil
}

func relatedCommand(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	id, err := requireArg(c, "record id")
	if err != nil {
		return err
	}
	rec, err := snap.GetEntry(types.RecordID(id))
	if err != nil {
		return err
	}
	resolutions, err := snap.Related(rec.ID)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, display.NewRecordFormatter(display.FormatterOptions{}).FormatRelated(rec, resolutions, snap.ReferencedBy(rec.ID)))
	return nil
}

func statsCommand(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error {
	return printJSON(c, struct {
		catalog.Stats
		Warnings []string      `json:"warnings"`
		Build    version.Stamp `json:"build"`
	}{snap.Stats(), warningStrings(snap), version.Current().WithSnapshot(snap.FingerprintHex(), snap.GetCount())})
}

func warningStrings(snap *catalog.Snapshot) []string {
	out := []string{}
	for _, w := range snap.Warnings() {
		out = append(out, w.String())
	}
	sort.Strings(out)
	return out
}

// mcpCommand serves the catalog over stdio. With --watch (or content.watch)
// file changes trigger a reload; a failed reload keeps the previous
// snapshot. A catalog that fails its first load still serves, and tools
// report the load error until a later reload succeeds.
func mcpCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	c.Context = ctx

	env, err := setup(c)
	if env == nil {
		return err
	}
	defer func() { _ = env.logger.Sync() }()
	if err != nil {
		env.logger.Error("initial catalog load failed", zap.Strings("problems", problemLines(err, env.cfg.Content.Root)))
	}

	if c.Bool("watch") || env.cfg.Content.Watch {
		w, err := newContentWatcher(env)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	server, err := mcp.NewServer(env.holder, env.cfg, env.logger)
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// newContentWatcher reloads the holder when a content file or the category
// registry changes
func newContentWatcher(env *runtimeEnv) (*watch.Watcher, error) {
	root := env.loader.Root()
	registry := ""
	if rel, err := filepath.Rel(root, env.loader.CategoriesPath()); err == nil {
		registry = filepath.ToSlash(rel)
	}

	match := func(rel string) bool {
		return rel == registry || env.loader.Matches(rel)
	}
	reload := func(ctx context.Context, changed []string) error {
		res, err := env.holder.Reload(ctx)
		if err != nil {
			return err
		}
		env.logger.Info("content reloaded",
			zap.Int("changed_files", len(changed)),
			zap.Bool("swapped", res.Swapped),
			zap.Int("records", res.Records))
		return nil
	}

	return watch.New(watch.Options{
		Root:     root,
		Debounce: env.cfg.WatchDebounce(),
		Match:    match,
		SkipDirs: env.cfg.Content.Exclude,
	}, reload, env.logger)
}
