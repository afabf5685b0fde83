package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/medcat/internal/catalog"
	"github.com/standardbeagle/medcat/internal/config"
	"github.com/standardbeagle/medcat/internal/loader"
	"github.com/standardbeagle/medcat/internal/logging"
	"github.com/standardbeagle/medcat/internal/version"
)

// runtimeEnv is what every command needs: the effective config, a logger,
// the content loader and a holder with the catalog loaded
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	loader *loader.Loader
	holder *catalog.Holder
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	rootFlag := c.String("root")

	if rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		rootFlag = absRoot
	}

	cfg, err := config.Load(configPath, rootFlag)
	if err != nil {
		src := configPath
		if src == "" {
			src = filepath.Join(rootFlag, config.FileName)
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", src, err)
	}

	// an explicit config file keeps its settings but --root still picks the content
	if configPath != "" && rootFlag != "" {
		cfg.Content.Root = rootFlag
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	return cfg, nil
}

// setup loads config and the catalog. A failed load is returned as is so
// validate can report every problem.
func setup(c *cli.Context) (*runtimeEnv, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logging.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ld := loader.New(cfg.LoaderOptions(), logger)
	opts := catalog.DefaultOptions()
	opts.Search = cfg.SearchOptions()

	env := &runtimeEnv{
		cfg:    cfg,
		logger: logger,
		loader: ld,
		holder: catalog.NewHolder(ld, opts, logger),
	}
	if _, err := env.holder.Reload(c.Context); err != nil {
		return env, err
	}
	return env, nil
}

// withCatalog runs fn against the loaded snapshot
func withCatalog(fn func(c *cli.Context, env *runtimeEnv, snap *catalog.Snapshot) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := setup(c)
		if env != nil {
			defer func() { _ = env.logger.Sync() }()
		}
		if err != nil {
			return err
		}
		snap, err := env.holder.Snapshot()
		if err != nil {
			return err
		}
		return fn(c, env, snap)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:                   "medcat",
		Usage:                  "Medical educational content catalog: lookup, search, categories and ICD-11 mapping",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Writer:                 out,
		ErrWriter:              os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: <root>/" + config.FileName + ")",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Content directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Load the catalog and report every schema, category and cross-reference problem",
				Action: validateCommand,
			},
			{
				Name:      "get",
				Usage:     "Show one record",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output the full record as JSON"},
					&cli.IntFlag{Name: "level", Aliases: []string{"l"}, Usage: "Print the explanation of one level"},
				},
				Action: withCatalog(getCommand),
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Ranked search over names, alternate names, keywords and explanations",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "emergencies", Aliases: []string{"e"}, Usage: "Only critical-relevance records"},
					&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
				},
				Action: withCatalog(searchCommand),
			},
			{
				Name:      "category",
				Usage:     "List categories, or the records of one category",
				ArgsUsage: "[name]",
				Action:    withCatalog(categoryCommand),
			},
			{
				Name:  "icd11",
				Usage: "Print the id to ICD-11 code mapping",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fhir", Usage: "Output a FHIR R4 ValueSet"},
					&cli.StringFlag{Name: "url", Usage: "ValueSet canonical url"},
				},
				Action: withCatalog(icd11Command),
			},
			{
				Name:      "related",
				Usage:     "Resolve the cross-references of a record",
				ArgsUsage: "<id>",
				Action:    withCatalog(relatedCommand),
			},
			{
				Name:   "stats",
				Usage:  "Catalog statistics as JSON",
				Action: withCatalog(statsCommand),
			},
			{
				Name:  "mcp",
				Usage: "Serve the catalog as MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Reload when content files change (overrides config)"},
				},
				Action: mcpCommand,
			},
		},
	}
}

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.Current())
	}

	if err := newApp(os.Stdout).RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
