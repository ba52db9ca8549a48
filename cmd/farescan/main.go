// farescan compares award and cash fares for a route over a window of departure dates.
//
// Usage:
//
//	farescan search GRU JFK 2024-01-01 --days 10 --mile-value 0.0175
//	farescan replay --store data/responses.json --format html --output fares.html
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/alex-user-go/farescan/internal/app"
	"github.com/alex-user-go/farescan/internal/config"
	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/report"
	"github.com/alex-user-go/farescan/internal/search"
	"github.com/alex-user-go/farescan/internal/search/types"
)

var version = "dev"

func main() {
	cliApp := &cli.App{
		Name:    "farescan",
		Usage:   "Find the cheapest fare per date and cabin across a window of departure dates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or JSON config file",
				EnvVars: []string{"FARESCAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"FARESCAN_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			replayCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   report.FormatText,
			Usage:   "Output format (text, html, json)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "mile-value",
			Usage: "Currency value of one mile (defaults to search.mile_value)",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "File holding raw responses (defaults to store.path)",
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Keep raw responses in Redis instead of a file",
			EnvVars: []string{"FARESCAN_REDIS_URL"},
		},
	}
}

// =============================================================================
// SEARCH COMMAND
// =============================================================================

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Query every date of the window and report the best fares",
		ArgsUsage: "ORIGIN DESTINATION START",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"n"},
				Usage:   "Number of consecutive departure dates (defaults to search.days)",
			},
			&cli.IntFlag{
				Name:  "adults",
				Usage: "Passengers per search (defaults to search.adults)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum requests in flight (defaults to search.concurrency)",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not persist raw responses",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		}, outputFlags()...),
		Action: runSearch,
	}
}

func runSearch(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: farescan search ORIGIN DESTINATION START", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c.String("log-level"))

	if c.IsSet("days") {
		cfg.Search.Days = c.Int("days")
	}
	if c.IsSet("adults") {
		cfg.Search.Adults = c.Int("adults")
	}
	if c.IsSet("concurrency") {
		cfg.Search.Concurrency = c.Int("concurrency")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	model, err := costModel(c, cfg)
	if err != nil {
		return err
	}

	query := search.Query{
		Window: search.SearchWindow{
			Origin:      c.Args().Get(0),
			Destination: c.Args().Get(1),
			Start:       c.Args().Get(2),
			Days:        cfg.Search.Days,
		},
		Adults: cfg.Search.Adults,
		Cost:   model,
	}
	if err := query.Window.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var responses search.ResponseStore
	if !c.Bool("no-save") {
		var closeStore func()
		responses, closeStore, err = app.OpenStore(ctx, storeConfig(c, cfg))
		if err != nil {
			return err
		}
		defer closeStore()
	}

	metrics := obs.NewMetrics(logger)
	pipeline := app.NewPipeline(cfg, responses, metrics, logger)

	if !c.Bool("quiet") {
		bar := progressbar.NewOptions(query.Window.Days,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("Searching %s-%s", strings.ToUpper(query.Window.Origin), strings.ToUpper(query.Window.Destination))),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)
		pipeline = pipeline.WithProgress(bar)
	}

	table, err := pipeline.Run(ctx, query)
	if err != nil {
		return err
	}
	return render(c, table)
}

// =============================================================================
// REPLAY COMMAND
// =============================================================================

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:   "replay",
		Usage:  "Rebuild the report from previously saved responses",
		Flags:  outputFlags(),
		Action: runReplay,
	}
}

func runReplay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c.String("log-level"))

	model, err := costModel(c, cfg)
	if err != nil {
		return err
	}

	responses, closeStore, err := app.OpenStore(c.Context, storeConfig(c, cfg))
	if err != nil {
		return err
	}
	defer closeStore()
	if responses == nil {
		return cli.Exit("no response store configured", 2)
	}

	pipeline := app.NewPipeline(cfg, nil, obs.NewMetrics(logger), logger)
	table, err := pipeline.Replay(c.Context, responses, model)
	if err != nil {
		return err
	}
	return render(c, table)
}

// =============================================================================
// HELPERS
// =============================================================================

func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.String("config"))
}

func storeConfig(c *cli.Context, cfg config.Config) config.StoreConfig {
	sc := cfg.Store
	if c.IsSet("store") {
		sc.Path = c.String("store")
		sc.RedisURL = ""
	}
	if c.IsSet("redis-url") {
		sc.RedisURL = c.String("redis-url")
	}
	return sc
}

func costModel(c *cli.Context, cfg config.Config) (search.CostModel, error) {
	model := search.CostModel{MileValue: cfg.Search.MileValue}
	if c.IsSet("mile-value") {
		v, err := decimal.NewFromString(c.String("mile-value"))
		if err != nil || v.IsNegative() {
			return model, fmt.Errorf("mile-value must be a non-negative number")
		}
		model.MileValue = v
	}
	return model, nil
}

func render(c *cli.Context, table *types.FareTable) error {
	var w io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		w = f
	}
	return report.Write(w, c.String("format"), table)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
