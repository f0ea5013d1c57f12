package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mermaid/pkg/batch"
)

// List styles
var (
	listNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// OutcomeListModel - Interactive diagnostics browser
// =============================================================================

// OutcomeListModel is the bubbletea model for browsing check results.
// The table lists one row per file; the pane below shows the selected
// file's errors and warnings.
type OutcomeListModel struct {
	Outcomes []batch.Outcome
	Cursor   int
	Height   int
	Offset   int
}

// NewOutcomeListModel creates a new outcome list model.
func NewOutcomeListModel(outcomes []batch.Outcome) OutcomeListModel {
	return OutcomeListModel{
		Outcomes: outcomes,
		Cursor:   0,
		Height:   15,
		Offset:   0,
	}
}

func (m OutcomeListModel) Init() tea.Cmd {
	return nil
}

func (m OutcomeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Outcomes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m OutcomeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Check Results"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Outcomes) {
		end = len(m.Outcomes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		out := m.Outcomes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		nodes, edges := "—", "—"
		status := StyleSuccess.Render(iconSuccess + " ok")
		switch {
		case out.Err != nil:
			status = styleIconError.Render(iconError + " error")
		case len(out.Result.Warnings) > 0:
			status = StyleWarning.Render(fmt.Sprintf("%s %d warnings", iconWarning, len(out.Result.Warnings)))
			nodes = fmt.Sprintf("%d", len(out.Result.Diagram.Nodes))
			edges = fmt.Sprintf("%d", len(out.Result.Diagram.Edges))
		default:
			nodes = fmt.Sprintf("%d", len(out.Result.Diagram.Nodes))
			edges = fmt.Sprintf("%d", len(out.Result.Diagram.Edges))
		}

		rows = append(rows, []string{cursor, out.Name, nodes, edges, status})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Nodes", "Edges", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Bold(true)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(m.diagnosticsPane())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Outcomes))))

	return b.String()
}

// diagnosticsPane renders the selected file's errors and warnings.
func (m OutcomeListModel) diagnosticsPane() string {
	if len(m.Outcomes) == 0 {
		return listDimStyle.Render("  no files")
	}
	out := m.Outcomes[m.Cursor]

	var b strings.Builder
	if out.Err != nil {
		b.WriteString("  " + styleIconError.Render(iconError) + " " + out.Err.Error() + "\n")
		return b.String()
	}
	if len(out.Result.Warnings) == 0 {
		b.WriteString(listDimStyle.Render("  no diagnostics") + "\n")
		return b.String()
	}
	for _, w := range out.Result.Warnings {
		b.WriteString("  " + styleIconWarning.Render(iconWarning) + " " + listNormalStyle.Render(w.String()) + "\n")
	}
	return b.String()
}

// runOutcomeBrowser opens the interactive diagnostics browser.
func runOutcomeBrowser(outcomes []batch.Outcome) error {
	_, err := tea.NewProgram(NewOutcomeListModel(outcomes)).Run()
	return err
}
