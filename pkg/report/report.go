// Package report renders rewrite results for terminals: line diffs of a
// rewritten file and a summary table over many files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/hornbeam/pkg/safeconv"
)

// lineDiffs computes a line-granular diff of before and after.
func lineDiffs(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

// splitLines splits text after every newline, keeping the terminators.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// Diff writes a unified-style line diff of before and after under a
// "--- name" / "+++ name" header. Nothing is written when the texts are equal.
func Diff(w io.Writer, name, before, after string, colorize bool) error {
	if before == after {
		return nil
	}

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	header := color.New(color.Bold)

	for _, c := range []*color.Color{removed, added, header} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var sb strings.Builder

	sb.WriteString(header.Sprintf("--- %s", name) + "\n")
	sb.WriteString(header.Sprintf("+++ %s", name) + "\n")

	for _, d := range lineDiffs(before, after) {
		for _, line := range splitLines(d.Text) {
			text := strings.TrimSuffix(line, "\n")

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString(removed.Sprint("-"+text) + "\n")
			case diffmatchpatch.DiffInsert:
				sb.WriteString(added.Sprint("+"+text) + "\n")
			case diffmatchpatch.DiffEqual:
				sb.WriteString(" " + text + "\n")
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

// LineStats counts the lines a rewrite added and removed.
func LineStats(before, after string) (added, removed int) {
	for _, d := range lineDiffs(before, after) {
		n := len(splitLines(d.Text))

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		case diffmatchpatch.DiffEqual:
		}
	}

	return added, removed
}

// Result summarizes the rewrite of one file.
type Result struct {
	File         string
	Replacements int
	Before       string
	After        string
	Err          error
}

// Summary writes a table with one row per result and a totals footer.
func Summary(w io.Writer, results []Result) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"File", "Replacements", "+Lines", "-Lines", "Size", "Status"})

	var total, failed int

	for _, r := range results {
		status := "ok"

		switch {
		case r.Err != nil:
			status = r.Err.Error()
			failed++
		case r.Replacements == 0:
			status = "unchanged"
		}

		added, removed := LineStats(r.Before, r.After)
		total += r.Replacements

		tbl.AppendRow(table.Row{
			r.File,
			r.Replacements,
			added,
			removed,
			sizeChange(len(r.Before), len(r.After)),
			status,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(results)),
		total,
		"", "", "",
		fmt.Sprintf("%d failed", failed),
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func sizeChange(before, after int) string {
	from := humanize.Bytes(safeconv.MustIntToUint64(before))
	to := humanize.Bytes(safeconv.MustIntToUint64(after))

	if from == to {
		return from
	}

	return from + " → " + to
}
