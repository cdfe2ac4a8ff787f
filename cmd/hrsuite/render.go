package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/hrsuite/pkg/session"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	accent = lipgloss.Color("#FFB3BA")
	mint   = lipgloss.Color("#A8E6CF")
	muted  = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	dimStyle = lipgloss.NewStyle().
			Foreground(muted)

	okStyle = lipgloss.NewStyle().
		Foreground(mint).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(accent).
			Italic(true)
)

// renderRecords lays out cached records as aligned columns.
func renderRecords(dir string, recs []session.Record) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("cache: "+dir) + "\n")

	if len(recs) == 0 {
		b.WriteString("no cached sessions\n")
		return b.String()
	}

	rows := [][]string{{"NAME", "CREATED", "VALIDATED", "COOKIES"}}
	for _, r := range recs {
		rows = append(rows, []string{
			r.Name,
			formatTime(r.CreatedAt),
			formatTime(r.ValidatedAt),
			fmt.Sprintf("%d", len(r.State.Cookies)),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			style := cellStyle.Width(widths[j] + 2)
			if i == 0 {
				style = style.Inherit(headerStyle)
			}
			cells[j] = style.Render(cell)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ") + "\n")
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
