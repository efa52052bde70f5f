package chat

import (
	"fmt"
	"strings"

	"bidwatch/internal/format"
	"bidwatch/internal/memory"
)

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.inputView())
	sb.WriteString("\n")
	sb.WriteString(m.footerView())
	return sb.String()
}

func (m Model) headerView() string {
	title := m.styles.Header.Render(" bidwatch ")
	status := ""
	if m.data != nil {
		stats := m.data.Stats()
		if stats.Rows > 0 {
			status = m.styles.Muted.Render(fmt.Sprintf("  %s contracts · %s total",
				format.Number(int64(stats.Rows)), format.Currency(stats.TotalValue)))
		}
		if m.data.Stale() {
			status += m.styles.Warning.Render("  dataset changed on disk — reload with `bidwatch load`")
		}
	}
	return title + status + "\n" + m.styles.RenderDivider(m.width)
}

func (m Model) inputView() string {
	if m.streaming {
		return m.spin.View() + m.styles.Muted.Render(" thinking…")
	}
	return m.styles.Prompt.Render("❯ ") + m.input.View()
}

func (m Model) footerView() string {
	if m.statusErr != "" {
		return m.styles.Error.Render(m.statusErr)
	}
	hints := "enter send · /clear reset · /quit exit"
	if tokens := m.chat.TokensUsed(); tokens > 0 {
		hints += fmt.Sprintf(" · %s tokens used", format.Number(int64(tokens)))
	}
	return m.styles.Footer.Render(hints)
}

// renderTranscript renders stored turns plus the in-flight partial reply.
func (m Model) renderTranscript() string {
	var sb strings.Builder
	for _, msg := range m.chat.Messages() {
		switch msg.Role {
		case memory.RoleUser:
			sb.WriteString(m.styles.Prompt.Render("you ") + m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")
		case memory.RoleAssistant:
			sb.WriteString(m.styles.AgentResponse.Render(m.renderMarkdown(msg.Content)))
			sb.WriteString("\n")
		}
	}
	if m.streaming && m.partial != "" {
		// Raw text while streaming; markdown is rendered once committed.
		sb.WriteString(m.styles.AgentResponse.Render(m.partial))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
