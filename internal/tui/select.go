// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// Choice is one selectable object.
type Choice struct {
	Name         string
	Kind         string
	Dependencies []string
}

type objectItem struct {
	Choice
}

func (i objectItem) Title() string       { return i.Name }
func (i objectItem) FilterValue() string { return i.Name }

func (i objectItem) Description() string {
	if len(i.Dependencies) == 0 {
		return i.Kind
	}
	return fmt.Sprintf("%s <- %s", i.Kind, strings.Join(i.Dependencies, ", "))
}

type itemStyles struct {
	normal    lipgloss.Style
	selected  lipgloss.Style
	kindStyle lipgloss.Style
	nameStyle lipgloss.Style
	depsStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		kindStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")),
		nameStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		depsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
	}
}

type objectDelegate struct {
	styles itemStyles
}

func newDelegate() objectDelegate {
	return objectDelegate{styles: newItemStyles()}
}

func (d objectDelegate) Height() int                         { return 4 }
func (d objectDelegate) Spacing() int                        { return 0 }
func (d objectDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d objectDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	obj, ok := item.(objectItem)
	if !ok {
		return
	}

	nameLine := d.styles.kindStyle.Render(fmt.Sprintf("[%s] ", strings.ToUpper(obj.Kind))) +
		d.styles.nameStyle.Render(obj.Name)
	deps := "no dependencies"
	if len(obj.Dependencies) > 0 {
		deps = "depends on " + strings.Join(obj.Dependencies, ", ")
	}
	depsLine := d.styles.depsStyle.Render(truncate(deps, m.Width()-4))

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(lipgloss.JoinVertical(lipgloss.Left, nameLine, depsLine)))
}

type model struct {
	list     list.Model
	title    string
	selected string
	stopped  bool
}

func newModel(title string, choices []Choice) *model {
	listItems := make([]list.Item, len(choices))
	for i, choice := range choices {
		listItems[i] = objectItem{Choice: choice}
	}

	l := list.New(listItems, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{list: l, title: title}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(objectItem); ok {
				m.selected = item.Name
				return m, tea.Quit
			}
		case "ctrl+c", "q", "esc":
			m.stopped = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(m.title)
	help := helpStyle.Render("Up/Down navigate | / filter | Enter query | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// SelectObject lets the user pick one of choices and returns its name.
// Leaving the picker returns a StopProcessingError.
func SelectObject(title string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no objects to choose from")
	}

	finalModel, err := runProgram(newModel(title, choices))
	if err != nil {
		return "", err
	}

	typed, ok := finalModel.(*model)
	if !ok {
		return "", fmt.Errorf("unexpected program result")
	}
	if typed.stopped || typed.selected == "" {
		return "", wdberrors.NewStopProcessingError("object selection cancelled")
	}
	return typed.selected, nil
}

// truncate shortens value to width terminal cells without splitting runes.
func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
