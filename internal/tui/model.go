// Package tui is a terminal front end for the chat actions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/store"
)

// ChatPort is the TUI-facing subset of the chat service. Both the
// in-process service and the daemon client satisfy it.
type ChatPort interface {
	Ask(ctx context.Context, question string) (*chat.AskResult, error)
	Search(ctx context.Context, query string) (*chat.SearchResult, error)
	History(ctx context.Context) (*chat.History, error)
}

type focus int

const (
	focusQuestion focus = iota
	focusSearch
)

type askDoneMsg struct {
	result *chat.AskResult
	err    error
}

type searchDoneMsg struct {
	result *chat.SearchResult
	err    error
}

type historyMsg struct {
	history *chat.History
	err     error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	service  ChatPort
	title    string
	question textinput.Model
	search   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	focus    focus

	history *chat.History
	answer  *chat.AskResult
	results *chat.SearchResult
	status  string
	busy    bool
	ready   bool
}

// New creates a chat screen backed by service.
func New(ctx context.Context, service ChatPort, title string) Model {
	q := textinput.New()
	q.Prompt = "Enter your question: "
	q.Placeholder = "What is 2+2?"
	q.CharLimit = 0
	q.Focus()

	s := textinput.New()
	s.Prompt = "Search history: "
	s.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		service:  service,
		title:    title,
		question: q,
		search:   s,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		status:   "Tab switches fields. Enter submits. Ctrl+C quits.",
	}
}

// Init loads the history and starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		reserved := 2 + 2 + 1 + fh // title, inputs, status, frame
		m.viewport.Width = atLeast(20, msg.Width-2)
		m.viewport.Height = atLeast(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			m.toggleFocus()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case askDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.answer = msg.result
		m.question.SetValue("")
		m.status = "Answered."
		if msg.result.StoreFailure != nil {
			m.status = msg.result.StoreFailure.Message
		}
		m.refresh()
		return m, m.loadHistory()

	case searchDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.results = msg.result
		m.status = fmt.Sprintf("Results for %q", msg.result.Query)
		m.refresh()
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.history = msg.history
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusQuestion {
		m.question, cmd = m.question.Update(msg)
	} else {
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

// View renders the title, transcript, inputs and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return titleStyle.Render(m.title) + "\n\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		m.question.View() + "\n" +
		m.search.View() + "\n" +
		statusStyle.Render(status)
}

// submit runs the action for the focused field. Blank input does nothing.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	if m.focus == focusQuestion {
		q := m.question.Value()
		if strings.TrimSpace(q) == "" {
			return m, nil
		}
		m.busy = true
		m.status = "Asking the model..."
		ctx, service := m.ctx, m.service
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			result, err := service.Ask(ctx, q)
			return askDoneMsg{result: result, err: err}
		})
	}

	q := m.search.Value()
	if strings.TrimSpace(q) == "" {
		return m, nil
	}
	m.busy = true
	m.status = "Searching..."
	ctx, service := m.ctx, m.service
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := service.Search(ctx, q)
		return searchDoneMsg{result: result, err: err}
	})
}

func (m Model) loadHistory() tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		history, err := service.History(ctx)
		return historyMsg{history: history, err: err}
	}
}

func (m *Model) toggleFocus() {
	if m.focus == focusQuestion {
		m.focus = focusSearch
		m.question.Blur()
		m.search.Focus()
		return
	}
	m.focus = focusQuestion
	m.search.Blur()
	m.question.Focus()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

// transcript renders history, the latest answer and the latest search.
func (m Model) transcript() string {
	var sb strings.Builder

	if m.history != nil {
		if m.history.Failure != nil {
			sb.WriteString(failureStyle.Render(m.history.Failure.Message))
			sb.WriteString("\n")
		} else if len(m.history.Items) > 0 {
			sb.WriteString(headerStyle.Render("History of queries and responses:"))
			sb.WriteString("\n")
			for _, item := range m.history.Items {
				line := fmt.Sprintf("%d. %s", item.Index, item.Document)
				if item.Kind == store.KindQuery {
					line = queryStyle.Render(line)
				}
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}

	if m.answer != nil {
		sb.WriteString("\n")
		text := "Ollama Response: " + m.answer.Answer.Text
		if m.answer.Answer.Failure != nil {
			text = failureStyle.Render(text)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if m.results != nil {
		sb.WriteString("\n")
		sb.WriteString(headerStyle.Render("Search results:"))
		sb.WriteString("\n")
		for _, line := range m.results.Lines {
			if m.results.Failure != nil {
				line = failureStyle.Render(line)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return "No history yet."
	}
	return strings.TrimRight(sb.String(), "\n")
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Underline(true)
	queryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func atLeast(floor, n int) int {
	if n < floor {
		return floor
	}
	return n
}
