package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/registry"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ComponentListModel - Interactive component browsing
// =============================================================================

// ComponentListModel is the bubbletea model for interactive component selection.
type ComponentListModel struct {
	Components []*registry.Component
	Cursor     int
	Selected   *registry.Component
	Height     int
	Offset     int
}

// NewComponentListModel creates a new component list model.
func NewComponentListModel(components []*registry.Component) ComponentListModel {
	return ComponentListModel{
		Components: components,
		Cursor:     0,
		Height:     15,
		Offset:     0,
	}
}

func (m ComponentListModel) Init() tea.Cmd {
	return nil
}

func (m ComponentListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Components)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Components[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ComponentListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Component"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Components) {
		end = len(m.Components)
	}

	b.WriteString(componentTable(m.Components[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Components))))

	return b.String()
}

// componentTable renders components as a bordered table. cursor marks the
// highlighted row index within components, or -1 for a static listing.
func componentTable(components []*registry.Component, cursor int) string {
	rows := [][]string{}
	for i, comp := range components {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}

		deps := "—"
		if len(comp.Dependencies) > 0 {
			deps = strings.Join(comp.Dependencies, ", ")
		}

		rows = append(rows, []string{
			marker, comp.Name, comp.ShortName, string(comp.Kind), string(comp.Stability), deps,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Component", "Short", "Kind", "Stability", "Dependencies").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(components) {
				return lipgloss.NewStyle()
			}

			comp := components[row]
			if row == cursor {
				return listSelectedStyle
			}
			if comp.Stability == registry.StabilityExperimental ||
				comp.Stability == registry.StabilityExperimentalEarlyAdopter {
				return listDimStyle
			}
			return listNormalStyle
		})

	return t.Render()
}

// =============================================================================
// ConfirmModel - Yes/no prompt for destructive operations
// =============================================================================

// ConfirmModel is the bubbletea model for a yes/no confirmation prompt.
type ConfirmModel struct {
	Prompt    string
	Confirmed bool
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y":
			m.Confirmed = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	return m.Prompt + " " + listDimStyle.Render("[y/N]") + " "
}

// confirm shows a yes/no prompt and returns the answer. The default is no.
func confirm(prompt string) (bool, error) {
	final, err := tea.NewProgram(ConfirmModel{Prompt: prompt}).Run()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "confirmation prompt")
	}
	m, ok := final.(ConfirmModel)
	if !ok {
		return false, errors.New(errors.ErrCodeInternal, "unexpected prompt model %T", final)
	}
	return m.Confirmed, nil
}
