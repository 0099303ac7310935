package stats

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("#9ECE6A"))
	gapStyle    = cellStyle.Foreground(lipgloss.Color("#E0AF68"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B4261"))
)

// Table renders the summary rows with a totals footer.
func Table(rep Report) string {
	rows := make([][]string, 0, len(rep.Summary)+1)
	for _, s := range rep.Summary {
		rows = append(rows, []string{
			s.Vendor,
			s.SourceType,
			strconv.Itoa(s.RawCount),
			strconv.Itoa(s.AnalysisCount),
			strconv.Itoa(s.TasksDone),
			matchMark(s.AnalysisMatch),
		})
	}
	rows = append(rows, []string{
		"total", "",
		strconv.Itoa(rep.Totals.Raw),
		strconv.Itoa(rep.Totals.Analyzed),
		"",
		fmt.Sprintf("%.0f%%", rep.Totals.Coverage*100),
	})

	last := len(rows) - 1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == last:
				return cellStyle.Bold(true)
			case col == 5 && rows[row][5] == matchMark(true):
				return okStyle
			case col == 5:
				return gapStyle
			}
			return cellStyle
		}).
		Headers("Vendor", "Type", "Raw", "Analysed", "Done", "Match").
		Rows(rows...)
	return t.String()
}

// ErrorRow is rendered in place of the table when a report is unavailable.
func ErrorRow(err error) string {
	return errStyle.Render("✗ stats unavailable: ") + err.Error()
}

func matchMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
