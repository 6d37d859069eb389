package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/govai-bd/govai/internal/pipeline"
	"github.com/govai-bd/govai/internal/querylog"
)

// printRendered writes markdown, styled when stdout is a terminal.
func printRendered(md string) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		_, err := fmt.Print(md)
		return err
	}

	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		_, err = fmt.Print(md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		_, err = fmt.Print(md)
		return err
	}
	_, err = fmt.Print(out)
	return err
}

func answerMarkdown(resp *pipeline.Response) string {
	var b strings.Builder
	b.WriteString(resp.Answer)
	b.WriteString("\n")

	if len(resp.Sources) > 0 {
		b.WriteString("\n### তথ্যসূত্র\n\n")
		for i, s := range resp.Sources {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, escapeMarkdown(s.Title), s.URL)
		}
	}

	status := ""
	if resp.Degraded {
		status = " · degraded"
	}
	fmt.Fprintf(&b, "\n_%s · %.2fs%s_\n", resp.Language, resp.ProcessingTime, status)
	return b.String()
}

func statsMarkdown(s *querylog.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Query statistics (%s)\n\n", s.Window)
	fmt.Fprintf(&b, "- Total queries: **%d**\n", s.TotalQueries)
	fmt.Fprintf(&b, "- Today: %d\n", s.QueriesToday)
	fmt.Fprintf(&b, "- Success rate: %.2f%% (%d ok, %d failed)\n", s.SuccessRate, s.SuccessCount, s.FailureCount)
	fmt.Fprintf(&b, "- Duration ms: avg %.2f · p50 %.2f · p95 %.2f · max %.2f\n",
		s.Duration.Avg, s.Duration.P50, s.Duration.P95, s.Duration.Max)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "- Skipped malformed records: %d\n", s.Skipped)
	}

	b.WriteString("\n### Languages\n\n| Language | Queries |\n|---|---|\n")
	for _, lang := range []string{"bn", "en", "banglish"} {
		fmt.Fprintf(&b, "| %s | %d |\n", lang, s.Languages[lang])
	}

	if len(s.TopQueries) > 0 {
		b.WriteString("\n### Top queries\n\n| # | Query | Count |\n|---|---|---|\n")
		for i, q := range s.TopQueries {
			fmt.Fprintf(&b, "| %d | %s | %d |\n", i+1, escapeMarkdown(q.Query), q.Count)
		}
	}
	return b.String()
}

func logsMarkdown(logs []querylog.Record) string {
	if len(logs) == 0 {
		return "No queries logged yet.\n"
	}
	var b strings.Builder
	b.WriteString("| Time | Language | Query | ms | OK |\n|---|---|---|---|---|\n")
	for _, r := range logs {
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.0f | %s |\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Language,
			escapeMarkdown(r.Query),
			r.DurationMs,
			ok,
		)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
