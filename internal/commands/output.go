package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"myweight/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	weightStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	errorColor = color.New(color.FgRed, color.Bold)
	hintColor  = color.New(color.FgYellow)
)

func renderWeightTable(records []domain.WeightRecord, unit domain.Unit) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Date, strconv.FormatFloat(unit.FromKilograms(r.Weight), 'f', 2, 64)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Date", fmt.Sprintf("Weight (%s)", unit)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return weightStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, domain.ErrUnauthorized) {
		_, _ = hintColor.Fprintln(w, "hint: run `myweight authorize` to obtain new Health Planet tokens")
	}
}
