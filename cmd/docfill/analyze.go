package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	cli "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docfill/internal/analyzer"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/dgallion1/docfill/internal/style"
)

type analyzed struct {
	File          string                      `json:"file"`
	Structure     *analyzer.TemplateStructure `json:"structure,omitempty"`
	Summary       *analyzer.Summary           `json:"summary,omitempty"`
	StyleWarnings []string                    `json:"style_warnings,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

// runAnalyze analyzes every argument concurrently and prints the results in
// argument order.
func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("at least one template file is required")
	}
	a, err := loadAnalyzer(cmd)
	if err != nil {
		return err
	}
	filler := pipeline.NewFiller(a, nil, nil, log)
	filler.PDFFallback = true

	results := make([]analyzed, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeFile(filler, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printAnalysis(r, cmd.Bool("zones"))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates could not be analyzed", failed, len(files))
	}
	return nil
}

func analyzeFile(filler *pipeline.Filler, file string) analyzed {
	res := analyzed{File: file}
	data, err := os.ReadFile(file)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	st, err := filler.Analyze(file, data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	sum := st.Summary()
	res.Structure = st
	res.Summary = &sum
	res.StyleWarnings = style.CheckConsistency(st.StyleRules, style.DefaultLimits())
	log.Debug("analyzed", "file", file, "zones", len(st.Zones), "confidence", st.Confidence)
	return res
}

func printAnalysis(r analyzed, zones bool) {
	fmt.Printf("== %s\n", r.File)
	if r.Error != "" {
		fmt.Printf("   error: %s\n\n", r.Error)
		return
	}
	s := r.Summary
	fmt.Printf("   paragraphs %d, confidence %.2f, placeholders %d, ~%d words to write\n",
		s.Paragraphs, s.Confidence, s.Placeholders, s.EstimatedWords)

	types := make([]string, 0, len(s.Zones))
	for t := range s.Zones {
		types = append(types, string(t))
	}
	sort.Strings(types)
	counts := make([]string, 0, len(types))
	for _, t := range types {
		counts = append(counts, fmt.Sprintf("%s=%d", t, s.Zones[analyzer.ZoneType(t)]))
	}
	fmt.Printf("   zones: %s\n", strings.Join(counts, " "))

	for _, ch := range s.Chapters {
		fmt.Printf("   BAB %d %s\n", ch.Number, ch.Title)
		for _, sec := range ch.Sections {
			fmt.Printf("      %s\n", sec)
		}
	}
	for _, w := range r.StyleWarnings {
		fmt.Printf("   warning: %s\n", w)
	}
	if zones {
		for _, z := range r.Structure.InOrder() {
			fmt.Printf("   %-10s %-12s L%d %.2f %s\n", z.ID, z.Type, z.Level, z.Confidence, clip(z.Text, 60))
		}
	}
	fmt.Println()
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
