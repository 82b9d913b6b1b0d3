package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/insert"
)

// log is set up by the root command before any subcommand runs.
var log = slog.New(slog.DiscardHandler)

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return ctx, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "docfill",
		Usage:           "analyzes thesis templates and fills them with content",
		HideHelpCommand: true,
		Before:          setupLogging,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Prints the detected structure of template file(s)",
				ArgsUsage: "FILE...",
				Action:    runAnalyze,
				Flags: []cli.Flag{
					patternsFlag(),
					&cli.BoolFlag{Name: "json", Usage: "print the full analysis as JSON"},
					&cli.BoolFlag{Name: "zones", Aliases: []string{"z"}, Usage: "list every zone"},
				},
			},
			{
				Name:   "fill",
				Usage:  "Fills a template with content from a file or generated for a topic",
				Action: runFill,
				Flags: []cli.Flag{
					patternsFlag(),
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Required: true, Usage: "template `FILE` (.docx keeps its format)"},
					&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "content `FILE` (JSON/YAML chapter map or Markdown)"},
					&cli.StringFlag{Name: "topic", Usage: "generate content for `TOPIC` (needs ANTHROPIC_API_KEY)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the filled document to `FILE`"},
					&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: "auto", Usage: "insertion `STRATEGY`: auto, direct, section, sequential or hybrid"},
					&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "load engine tuning from `FILE` (YAML)"},
					&cli.BoolFlag{Name: "json", Usage: "print the insertion result as JSON"},
				},
			},
			{
				Name:      "patterns",
				Usage:     "Dumps the embedded pattern library (YAML)",
				ArgsUsage: "[DESTINATION]",
				Action:    runPatterns,
			},
			{
				Name:   "strategies",
				Usage:  "Lists insertion strategies and the default selection thresholds",
				Action: runStrategies,
			},
		},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docfill: %v\n", err)
		os.Exit(1)
	}
}

func patternsFlag() cli.Flag {
	return &cli.StringFlag{Name: "patterns", Aliases: []string{"p"}, Usage: "load the pattern library from `FILE` (YAML)"}
}

func loadAnalyzer(cmd *cli.Command) (*analyzer.Analyzer, error) {
	lib, err := config.LoadLibrary(cmd.String("patterns"))
	if err != nil {
		return nil, err
	}
	return analyzer.New(lib), nil
}

func runPatterns(_ context.Context, cmd *cli.Command) (err error) {
	out := os.Stdout
	if fname := cmd.Args().Get(0); fname != "" {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer closeFile(out, &err)
		log.Info("writing pattern library", "file", fname)
	}
	_, err = out.Write(analyzer.DefaultPatternsYAML())
	return err
}

func runStrategies(_ context.Context, _ *cli.Command) error {
	cfg := insert.DefaultConfig()
	fmt.Printf("%-26s confidence >= %.2f, placeholders >= %d, direct ratio >= %.2f\n",
		insert.StrategyDirect, cfg.DirectConfidence, cfg.DirectPlaceholders, cfg.DirectRatio)
	fmt.Printf("%-26s confidence >= %.2f, structured zones >= %d\n",
		insert.StrategySectionAware, cfg.SectionConfidence, cfg.SectionZones)
	fmt.Printf("%-26s confidence >= %.2f\n", insert.StrategySequential, cfg.SequentialConfidence)
	fmt.Printf("%-26s otherwise\n", insert.StrategyHybrid)
	return nil
}
