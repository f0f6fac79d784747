package export

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	plainStyle  = lipgloss.NewStyle().Padding(0, 1)
)

// writeText draws a bordered table. Headers are bold only on a terminal.
func writeText(w io.Writer, rows Rows) error {
	styled := isTerminal(w)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(rows.Header...).
		Rows(rows.Cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow && styled:
				return headerStyle
			case row == table.HeaderRow:
				return plainStyle
			default:
				return cellStyle
			}
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
