package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/pipeline"
)

func runFill(ctx context.Context, cmd *cli.Command) (err error) {
	cfg := config.Load()

	a, err := loadAnalyzer(cmd)
	if err != nil {
		return err
	}
	tuning, err := config.LoadEngine(cmd.String("engine"))
	if err != nil {
		return err
	}

	var gen pipeline.Generator
	if cmd.String("topic") != "" && cfg.GenerationEnabled() {
		claude := generate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		defer claude.Close()
		gen = claude
	}
	filler := pipeline.NewFiller(a, tuning.NewEngine(log), gen, log)
	filler.PDFFallback = cfg.PDFFallbackPdftotext

	tplPath := cmd.String("template")
	tpl, err := os.ReadFile(tplPath)
	if err != nil {
		return err
	}
	req := pipeline.FillRequest{
		Filename: tplPath,
		Template: tpl,
		Topic:    cmd.String("topic"),
		Strategy: cmd.String("strategy"),
		OnPhase: func(s pipeline.JobStatus, phase string) {
			log.Debug("phase", "status", s, "phase", phase)
		},
	}
	if c := cmd.String("content"); c != "" {
		if req.Content, err = os.ReadFile(c); err != nil {
			return err
		}
		req.ContentName = c
	}

	out, err := filler.Fill(ctx, req)
	if err != nil {
		return err
	}
	if len(out.Dropped) > 0 {
		log.Warn("content items rejected", "ids", out.Dropped)
	}

	dest := cmd.String("out")
	if dest == "" {
		dest = filepath.Join(filepath.Dir(tplPath), out.OutputName)
	}
	if err := writeOutput(dest, out.Output); err != nil {
		return err
	}
	log.Info("filled document written", "file", dest)

	res := out.Result
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		selected := "forced"
		if res.Selected {
			selected = "selected"
		}
		fmt.Printf("strategy   %s (%s)\n", res.Strategy, selected)
		fmt.Printf("zones      %d processed\n", res.ZonesProcessed)
		fmt.Printf("items      %d of %d inserted\n", res.ItemsInserted, res.ItemsPlanned)
		fmt.Printf("paragraphs %d -> %d\n", res.ParagraphsBefore, res.ParagraphsAfter)
		for _, w := range res.Warnings {
			fmt.Printf("warning    %s\n", w)
		}
		for _, e := range res.Errors {
			fmt.Printf("error      %s\n", e)
		}
	}
	if !res.Success {
		return fmt.Errorf("insertion failed validation")
	}
	return nil
}

func writeOutput(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", path, err)
	}
	defer closeFile(f, &err)
	_, err = f.Write(data)
	return err
}

func closeFile(f *os.File, err *error) {
	*err = multierr.Append(*err, f.Close())
}
