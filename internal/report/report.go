// Package report renders comparison results as aligned, optionally colored
// text for terminal output.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/dbcompare/internal/compare"
)

// Renderer writes human-readable comparison output.
type Renderer struct {
	w       io.Writer
	colored bool
}

// NewRenderer creates a renderer. When colored is false, change kinds are
// printed without ANSI escapes (for piped or logged output).
func NewRenderer(w io.Writer, colored bool) *Renderer {
	return &Renderer{
		w:       w,
		colored: colored,
	}
}

// kindLabel renders a change kind, colored when enabled: additions green,
// removals red, modifications yellow.
func (r *Renderer) kindLabel(kind compare.ChangeKind) string {
	label := string(kind)
	if !r.colored {
		return label
	}
	switch kind {
	case compare.ChangeAdded:
		return color.Green.Sprint(label)
	case compare.ChangeRemoved:
		return color.Red.Sprint(label)
	case compare.ChangeModified:
		return color.Yellow.Sprint(label)
	default:
		return label
	}
}

// pad right-pads a string to the given display width. Display width is
// measured with runewidth so wide characters in identifiers stay aligned.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// RenderResult writes the full difference listing followed by the summary.
func (r *Renderer) RenderResult(result *compare.ComparisonResult) error {
	fmt.Fprintf(r.w, "Comparison: %s -> %s (%s)\n\n",
		result.SourceName, result.TargetName, result.ComparisonTime.Format("2006-01-02 15:04:05"))

	if !result.HasDifferences() {
		fmt.Fprintln(r.w, "No differences found.")
	}

	if len(result.SchemaDifferences) > 0 {
		r.renderSchemaDifferences(result.SchemaDifferences)
	}

	if len(result.DataDifferences) > 0 {
		r.renderDataDifferences(result.DataDifferences)
	}

	if len(result.SkippedTables) > 0 {
		fmt.Fprintln(r.w, "Skipped tables:")
		for _, skip := range result.SkippedTables {
			fmt.Fprintf(r.w, "  %s: %s\n", skip.Name, skip.Reason)
		}
		fmt.Fprintln(r.w)
	}

	return r.RenderSummary(compare.Summarize(result))
}

func (r *Renderer) renderSchemaDifferences(diffs []compare.SchemaDifference) {
	fmt.Fprintln(r.w, "Schema differences:")

	typeWidth, nameWidth := 0, 0
	for _, diff := range diffs {
		if w := runewidth.StringWidth(diff.ObjectType); w > typeWidth {
			typeWidth = w
		}
		if w := runewidth.StringWidth(diff.ObjectName); w > nameWidth {
			nameWidth = w
		}
	}

	for _, diff := range diffs {
		fmt.Fprintf(r.w, "  %s  %s  %s\n",
			pad(diff.ObjectType, typeWidth),
			pad(diff.ObjectName, nameWidth),
			r.kindLabel(diff.Kind))

		for _, field := range sortedKeys(diff.Details) {
			delta := diff.Details[field]
			fmt.Fprintf(r.w, "      %s: %s -> %s\n", field, delta.Source, delta.Target)
		}
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderDataDifferences(diffs []compare.TableDataDifference) {
	fmt.Fprintln(r.w, "Data differences:")

	tableWidth := 0
	for _, diff := range diffs {
		if w := runewidth.StringWidth(diff.TableName); w > tableWidth {
			tableWidth = w
		}
	}

	for _, diff := range diffs {
		fmt.Fprintf(r.w, "  %s  [%s]  %s\n",
			pad(diff.TableName, tableWidth),
			strings.Join(diff.PrimaryKeyValues, ", "),
			r.kindLabel(diff.Kind))

		for _, column := range sortedKeys(diff.ColumnDeltas) {
			delta := diff.ColumnDeltas[column]
			fmt.Fprintf(r.w, "      %s: %s -> %s\n", column, delta.Source, delta.Target)
		}
	}
	fmt.Fprintln(r.w)
}

// RenderSummary writes the aggregate counts.
func (r *Renderer) RenderSummary(summary *compare.Summary) error {
	fmt.Fprintln(r.w, "Summary:")
	fmt.Fprintf(r.w, "  Schema differences: %d\n", summary.SchemaTotal)
	for el := summary.SchemaByType.Front(); el != nil; el = el.Next() {
		fmt.Fprintf(r.w, "    %s: %d\n", el.Key, el.Value)
	}
	fmt.Fprintf(r.w, "  Data differences: %d\n", summary.DataTotal)
	for el := summary.DataByTable.Front(); el != nil; el = el.Next() {
		fmt.Fprintf(r.w, "    %s: %d\n", el.Key, el.Value)
	}
	fmt.Fprintf(r.w, "  Total: %d\n", summary.Total)
	return nil
}

// RenderTableList writes the resolved candidate tables, optionally with
// approximate row counts.
func (r *Renderer) RenderTableList(tables []string, rowCounts map[string]int64) {
	if len(tables) == 0 {
		fmt.Fprintln(r.w, "No candidate tables.")
		return
	}

	nameWidth := 0
	for _, name := range tables {
		if w := runewidth.StringWidth(name); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintf(r.w, "Candidate tables (%d):\n", len(tables))
	for _, name := range tables {
		if rowCounts != nil {
			fmt.Fprintf(r.w, "  %s  ~%d rows\n", pad(name, nameWidth), rowCounts[name])
		} else {
			fmt.Fprintf(r.w, "  %s\n", name)
		}
	}
}

func sortedKeys(m map[string]compare.ValueDelta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
