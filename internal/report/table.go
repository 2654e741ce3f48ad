package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/dataset"
)

const (
	tableNameWidth = 10
	tableColWidth  = 9
)

// FormatBandTable renders a per-sex table of mean predicted ratios, one row
// per model and one column per selected age. Ages missing from the grid show
// a dash.
func FormatBandTable(table *aggregate.Table, ages []int) string {
	var b strings.Builder

	models := table.Models()
	nameWidth := tableNameWidth
	for _, m := range models {
		if w := runewidth.StringWidth(m); w > nameWidth {
			nameWidth = w
		}
	}

	for _, sex := range dataset.Sexes {
		b.WriteString(sexLabel(sex) + "\n")

		header := padRight("model", nameWidth)
		for _, age := range ages {
			header += "  " + padRight(fmt.Sprintf("age %d", age), tableColWidth)
		}
		b.WriteString(strings.TrimRight(header, " ") + "\n")

		for _, m := range models {
			line := padRight(truncateName(m, nameWidth), nameWidth)
			for _, age := range ages {
				cell := "-"
				if row, ok := table.Lookup(age, sex, m); ok {
					cell = fmt.Sprintf("%.3f", row.Mean)
				}
				line += "  " + padRight(cell, tableColWidth)
			}
			b.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sexLabel(sex dataset.Sex) string {
	if sex == dataset.Female {
		return "Women"
	}
	return "Men"
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
