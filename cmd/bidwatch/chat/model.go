// Package chat is the interactive TUI for conversing with the assistant
// about the loaded procurement dataset. Rendering lives in view.go; the
// update loop and streaming glue are here.
package chat

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"bidwatch/cmd/bidwatch/ui"
	"bidwatch/internal/session"
)

// Model is the bubbletea model for the chat screen.
type Model struct {
	styles ui.Styles

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	chat *session.ChatSession
	data *session.DataSession

	// streaming state: input is disabled while a reply is in flight
	streaming bool
	partial   string
	reply     *session.ReplyStream

	width  int
	height int
	ready  bool

	statusErr string
	quitting  bool
}

// New builds the chat model. data may be nil when no dataset is loaded.
func New(chat *session.ChatSession, data *session.DataSession) Model {
	input := textinput.New()
	input.Placeholder = "Ask about awardees, areas, amounts… (/help for commands)"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := ui.DefaultStyles()
	sp.Style = styles.Spinner

	return Model{
		styles: styles,
		input:  input,
		spin:   sp,
		chat:   chat,
		data:   data,
	}
}

// Messages flowing through the update loop.
type (
	streamOpenedMsg struct{ reply *session.ReplyStream }
	streamDeltaMsg  struct{ delta string }
	streamDoneMsg   struct{}
	streamErrMsg    struct{ err error }
)

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// openStream starts one chat turn off the UI goroutine.
func (m Model) openStream(line string) tea.Cmd {
	chat := m.chat
	return func() tea.Msg {
		reply, err := chat.SendStream(context.Background(), line)
		if err != nil {
			return streamErrMsg{err}
		}
		return streamOpenedMsg{reply: reply}
	}
}

// pullDelta fetches the next streamed delta.
func pullDelta(reply *session.ReplyStream) tea.Cmd {
	return func() tea.Msg {
		delta, err := reply.Next()
		if err == io.EOF {
			return streamDoneMsg{}
		}
		if err != nil {
			return streamErrMsg{err}
		}
		return streamDeltaMsg{delta: delta}
	}
}

// Update is the bubbletea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		inputCmd tea.Cmd
		vpCmd    tea.Cmd
		spinCmd  tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshViewport(true)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.streaming {
				break // input is inert while a reply streams
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.Reset()
			m.statusErr = ""
			if strings.HasPrefix(line, "/") {
				return m.handleCommand(line)
			}
			m.streaming = true
			m.partial = ""
			m.refreshViewport(true)
			return m, tea.Batch(m.openStream(line), m.spin.Tick)
		}

	case streamOpenedMsg:
		m.reply = msg.reply
		return m, pullDelta(m.reply)

	case streamDeltaMsg:
		m.partial += msg.delta
		m.refreshViewport(true)
		return m, pullDelta(m.reply)

	case streamDoneMsg:
		m.streaming = false
		m.partial = ""
		m.reply = nil
		m.refreshViewport(true)

	case streamErrMsg:
		m.streaming = false
		m.partial = ""
		m.reply = nil
		m.statusErr = msg.err.Error()
		m.refreshViewport(true)

	case spinner.TickMsg:
		if m.streaming {
			m.spin, spinCmd = m.spin.Update(msg)
		}
	}

	if !m.streaming {
		m.input, inputCmd = m.input.Update(msg)
	}
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(inputCmd, vpCmd, spinCmd)
}

// handleCommand dispatches slash commands.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit
	case "/clear":
		m.chat.Clear()
		m.refreshViewport(true)
	case "/help":
		m.statusErr = "" // help renders in the footer area
	default:
		m.statusErr = "unknown command " + line + " (try /help)"
	}
	return m, nil
}

// layout recomputes component sizes after a resize.
func (m *Model) layout() {
	headerHeight := 2
	inputHeight := 3
	footerHeight := 1

	vpHeight := m.height - headerHeight - inputHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 6

	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
}

// refreshViewport re-renders the transcript, optionally following the tail.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}
