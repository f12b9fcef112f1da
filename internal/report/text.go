package report

import (
	"strings"
	"unicode/utf8"
)

const (
	maxTableColumns  = 4
	maxColumnNameLen = 14
)

// truncateName shortens long column names to maxLen runes by keeping both
// ends around an ellipsis.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	head, tail := maxLen/2-1, maxLen/2-2
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}

// chunkTable splits t into tables of at most maxCols columns each.
func chunkTable(t Table, maxCols int) []Table {
	if len(t.Columns) == 0 {
		return []Table{t}
	}
	var chunks []Table
	for start := 0; start < len(t.Columns); start += maxCols {
		end := min(start+maxCols, len(t.Columns))
		chunk := Table{Columns: t.Columns[start:end], Index: t.Index, Rows: make([][]string, len(t.Rows))}
		for i, row := range t.Rows {
			chunk.Rows[i] = row[min(start, len(row)):min(end, len(row))]
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// formatTable renders t as aligned monospace text: the index left aligned and
// every column right aligned.
func formatTable(t Table, header bool) string {
	indexWidth := 0
	for _, label := range t.Index {
		indexWidth = max(indexWidth, utf8.RuneCountInString(label))
	}

	widths := make([]int, len(t.Columns))
	for j, name := range t.Columns {
		if header {
			widths[j] = utf8.RuneCountInString(name)
		}
	}
	for _, row := range t.Rows {
		for j, cell := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(cell))
			}
		}
	}

	var b strings.Builder
	if header {
		b.WriteString(strings.Repeat(" ", indexWidth))
		for j, name := range t.Columns {
			b.WriteString("  ")
			b.WriteString(padLeft(name, widths[j]))
		}
		b.WriteString("\n")
	}
	for i, row := range t.Rows {
		label := ""
		if i < len(t.Index) {
			label = t.Index[i]
		}
		b.WriteString(padRight(label, indexWidth))
		for j := range t.Columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			b.WriteString("  ")
			b.WriteString(padLeft(cell, widths[j]))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func seriesTable(s Series) Table {
	rows := make([][]string, len(s.Values))
	for i, v := range s.Values {
		rows[i] = []string{v}
	}
	return Table{Columns: []string{""}, Index: s.Labels, Rows: rows}
}

// tableChunks returns the text blocks a table renders to.
func tableChunks(t Table, header bool) []string {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = truncateName(c, maxColumnNameLen)
	}
	t.Columns = columns

	var out []string
	for _, chunk := range chunkTable(t, maxTableColumns) {
		out = append(out, formatTable(chunk, header)+"\n")
	}
	return out
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
