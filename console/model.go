// Package console is a terminal chat with the PMO bot. Turns run in-process
// against the command engine; nothing goes over the network.
package console

import (
	"strings"

	"pmo-bot/commands"
	"pmo-bot/models"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	defaultHeight = 20
	inputHeight   = 3
)

// Entry is one line of the console history.
type Entry struct {
	FromBot  bool
	Text     string
	Response models.Response
}

type Model struct {
	engine *commands.Engine
	sender models.Identity

	input    textinput.Model
	viewport viewport.Model
	width    int

	History  []Entry
	Quitting bool
}

func NewModel(engine *commands.Engine, sender models.Identity) Model {
	m := Model{
		engine: engine,
		sender: sender,
		width:  defaultWidth,
	}

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.Placeholder = "Type a message or /help"
	m.input.CharLimit = 512
	m.input.Width = defaultWidth - 4
	m.input.Focus()

	m.viewport = viewport.New(defaultWidth, defaultHeight)

	welcome := engine.HandleParticipantsJoined([]models.Identity{sender})
	m.History = append(m.History, Entry{FromBot: true, Response: welcome})
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-inputHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return
	}

	resp := m.engine.HandleTurn(text, m.sender)
	m.History = append(m.History,
		Entry{Text: text},
		Entry{FromBot: true, Response: resp},
	)
	m.refresh()
}

func (m *Model) refresh() {
	blocks := make([]string, 0, len(m.History))
	for _, e := range m.History {
		if e.FromBot {
			blocks = append(blocks, botStyle.Render("PMO Assistant")+"\n"+RenderResponse(e.Response, m.width))
			continue
		}
		blocks = append(blocks, youStyle.Render(m.sender.DisplayName())+"\n"+e.Text)
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.input.View(),
		footerStyle.Render("enter send • pgup/pgdn scroll • esc quit"),
	)
}
