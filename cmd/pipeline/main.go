package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pipeline/internal/analyzer"
	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/config"
	"github.com/rxtech-lab/argo-pipeline/internal/indicator"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/paper"
	"github.com/rxtech-lab/argo-pipeline/internal/pipeline"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/storage"
	"github.com/rxtech-lab/argo-pipeline/internal/strategy"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/internal/version"
)

// buildRegistry assembles the plugin set for one run: the configured
// indicator, the configured strategy subscribed to it, the paper trader
// and the performance analyzer.
func buildRegistry(cfg config.EngineConfig) (*plugin.Registry, error) {
	kind := indicator.Kind(cfg.Indicator)
	indicators := indicator.DefaultRegistry()

	// fail on unknown indicator names before the pipeline is built
	if _, err := indicators.Create(kind, 1); err != nil {
		return nil, err
	}

	strategyFactory, err := strategy.DefaultRegistry().Resolve(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	indicatorEvent := indicator.EventName(kind)

	registry := plugin.NewRegistry()
	descriptors := []plugin.Descriptor{
		indicator.Descriptor(indicators, kind),
		strategyFactory(indicatorEvent),
		paper.Descriptor(cfg.Strategy),
		analyzer.Descriptor(paper.PluginName),
	}

	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// pluginConfigs renders the config file's per-plugin blocks. Only the
// paper trader's block is defaulted from the engine config when omitted;
// strategy and indicator blocks come from the config file.
func pluginConfigs(cfg config.EngineConfig) (map[string]string, error) {
	configs, err := cfg.PluginConfigs()
	if err != nil {
		return nil, err
	}

	if _, ok := configs[paper.PluginName]; !ok {
		configs[paper.PluginName] = fmt.Sprintf("pair: %s\ninitial_balance: %f\n",
			cfg.Pairs[0], cfg.InitialBalance)
	}

	return configs, nil
}

func loadConfig(path string) (config.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.EngineConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return config.Parse(data)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.NewDuckDBCandleStore(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer store.Close()

	brokers := broker.NewRegistry()
	if err := brokers.Register(broker.SimulatedBrokerName, func() broker.Broker {
		limits := make(map[types.Pair]broker.Limits, len(cfg.Pairs))
		for _, pair := range cfg.Pairs {
			limits[types.Pair(pair)] = broker.Limits{}
		}

		return broker.NewSimulatedBroker(cfg.FeePercent, limits)
	}); err != nil {
		return err
	}

	b, err := brokers.Create(cfg.Broker)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	configs, err := pluginConfigs(cfg)
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.NewOrchestrator(pipeline.Options{
		Mode:     cfg.Mode,
		Registry: registry,
		Services: plugin.Services{
			Logger:      log,
			Broker:      b,
			CandleStore: store,
		},
		Configs: configs,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	start := cfg.StartTime
	end := cfg.EndTime

	count, err := store.Count(start, end)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(count))
	bar.Describe(fmt.Sprintf("Running %s pipeline [%s]", cfg.Mode, cfg.Strategy))

	callback := pipeline.OnTickCallback(func(int) {
		_ = bar.Add(1)
	})

	return orchestrator.Run(ctx, store.ReadAll(start, end), optional.Some(callback))
}

func datarangesAction(_ context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.NewDuckDBCandleStore(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer store.Close()

	ranges, err := store.GetCandleDateranges()
	if err != nil {
		return err
	}

	if len(ranges) == 0 {
		fmt.Println("no ranges found")

		return nil
	}

	for _, r := range ranges {
		fmt.Printf("%s  %s\n", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	cfg := config.EngineConfig{}

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	if !cmd.Bool("plugins") {
		return nil
	}

	// plugin schemas need a fully assembled registry, so reuse the
	// default wiring with placeholder names
	registry := plugin.NewRegistry()
	descriptors := []plugin.Descriptor{
		indicator.Descriptor(indicator.DefaultRegistry(), indicator.KindSMA),
		strategy.ThresholdDescriptor(indicator.EventName(indicator.KindSMA)),
		paper.Descriptor(strategy.ThresholdStrategyName),
		analyzer.Descriptor(paper.PluginName),
	}

	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return err
		}
	}

	for _, d := range registry.List() {
		pluginSchema, err := d.ConfigSchemaJSON()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(map[string]string{d.Name: pluginSchema})
		if err != nil {
			return err
		}

		fmt.Print(string(out))
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "pipeline",
		Usage:   "Dependency-ordered plugin pipeline for paper trading",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the pipeline over stored candles",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine config YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the candle DuckDB database",
						Value:   "data/candles.duckdb",
					},
				},
				Action: runAction,
			},
			{
				Name:  "dateranges",
				Usage: "List the contiguous candle windows in the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the candle DuckDB database",
						Value:   "data/candles.duckdb",
					},
				},
				Action: datarangesAction,
			},
			{
				Name:  "schema",
				Usage: "Print the engine config JSON schema",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "plugins",
						Usage: "Also print the per-plugin config schemas",
					},
				},
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
