package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/app"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
)

// wz-inspect evaluates one PDF and prints how every page would be grouped,
// without writing documents or moving the source.
func main() {
	var (
		asJSON = flag.Bool("json", false, "print the report as JSON")
		dpi    = flag.Int("dpi", 0, "rasterization DPI (default RASTER_DPI or 200)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: wz-inspect [--json] [--dpi N] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	if *dpi > 0 {
		cfg.Raster.DPI = *dpi
	}
	// logs go to stderr so the report on stdout stays clean
	logger := app.NewLogger(cfg.Log, os.Stderr)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipe, err := app.Build(cfg, nil, "", logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	start := time.Now()
	s, err := pipe.Processor.Inspect(ctx, path)
	if err != nil {
		logger.Error("inspection failed", "path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(buildReport(s)); err != nil {
			logger.Error("encode report", "error", err)
			os.Exit(1)
		}
		return
	}
	printReport(s)
}

type pageReport struct {
	Page       int     `json:"page"`
	Label      string  `json:"label"`
	Kind       string  `json:"kind"`
	Identifier string  `json:"identifier,omitempty"`
	Attempt    string  `json:"attempt,omitempty"`
	Confidence float32 `json:"confidence"`
}

type groupReport struct {
	ID    string `json:"id"`
	Pages []int  `json:"pages"`
}

type droppedReport struct {
	Page   int    `json:"page"`
	Reason string `json:"reason"`
}

type report struct {
	Source  string          `json:"source"`
	Pages   []pageReport    `json:"pages"`
	Groups  []groupReport   `json:"groups"`
	Dropped []droppedReport `json:"dropped,omitempty"`
	Blank   []int           `json:"blank,omitempty"`
}

// buildReport uses 1-based page numbers, as printed in the logs.
func buildReport(s *session.Session) report {
	res := s.Result()
	r := report{Source: s.Source}
	for _, ev := range s.Evaluations() {
		id, _ := ev.ID()
		r.Pages = append(r.Pages, pageReport{
			Page:       ev.Page + 1,
			Label:      string(ev.Label()),
			Kind:       ev.Kind.String(),
			Identifier: id,
			Attempt:    ev.Attempt,
			Confidence: ev.Confidence,
		})
	}
	for _, g := range res.Groups {
		gr := groupReport{ID: g.ID}
		for _, p := range g.Pages {
			gr.Pages = append(gr.Pages, p+1)
		}
		r.Groups = append(r.Groups, gr)
	}
	for _, d := range res.Dropped {
		r.Dropped = append(r.Dropped, droppedReport{Page: d.Page + 1, Reason: d.Reason})
	}
	for _, b := range res.Blank {
		r.Blank = append(r.Blank, b+1)
	}
	return r
}

func printReport(s *session.Session) {
	r := buildReport(s)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tLABEL\tKIND\tIDENTIFIER\tATTEMPT\tCONFIDENCE")
	for _, p := range r.Pages {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n", p.Page, p.Label, p.Kind, p.Identifier, p.Attempt, p.Confidence)
	}
	_ = w.Flush()

	fmt.Println()
	for _, g := range r.Groups {
		pages := make([]string, len(g.Pages))
		for i, p := range g.Pages {
			pages[i] = fmt.Sprint(p)
		}
		fmt.Printf("%s: pages %s\n", g.ID, strings.Join(pages, ", "))
	}
	for _, d := range r.Dropped {
		fmt.Printf("dropped page %d: %s\n", d.Page, d.Reason)
	}
	if len(r.Blank) > 0 {
		fmt.Printf("blank pages: %v\n", r.Blank)
	}
}
