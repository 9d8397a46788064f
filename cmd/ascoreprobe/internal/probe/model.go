// Package probe implements the Bubble Tea model backing ascoreprobe.
package probe

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ascore-go/ascore"
)

// Config holds the connection parameters ascoreprobe was invoked with.
type Config struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Schema   string
	UDS      bool
	Polling  bool
}

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Model drives a single ascore.Connection from NotConnected to a
// terminal status, logging each status transition it observes.
type Model struct {
	cfg  Config
	conn *ascore.Connection

	status     ascore.Status
	transitions []ascore.Status
	quitting   bool
}

// New builds a Model for cfg. The connection itself is created lazily
// in Init so construction never touches the network.
func New(cfg Config) Model {
	return Model{cfg: cfg, status: ascore.StatusNotConnected}
}

type connectedMsg struct {
	conn   *ascore.Connection
	status ascore.Status
}

type polledMsg struct {
	status ascore.Status
}

func connectCmd(cfg Config) tea.Cmd {
	return func() tea.Msg {
		conn := ascore.Create(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Schema)
		conn.SetOption(ascore.OptionPolling, cfg.Polling)
		if cfg.UDS {
			conn.SetOption(ascore.OptionProtocolUDS, true)
		} else {
			conn.SetOption(ascore.OptionProtocolTCP, true)
		}
		status := conn.Connect()
		return connectedMsg{conn: conn, status: status}
	}
}

func pollCmd(conn *ascore.Connection) tea.Cmd {
	return func() tea.Msg {
		return polledMsg{status: conn.Poll()}
	}
}

func isTerminal(s ascore.Status) bool {
	switch s {
	case ascore.StatusIdle, ascore.StatusConnectFailed, ascore.StatusParameterError:
		return true
	}
	return false
}

// Init starts the connection attempt.
func (m Model) Init() tea.Cmd {
	return connectCmd(m.cfg)
}

// Update advances the model in response to connection lifecycle
// messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.conn = msg.conn
		m.status = msg.status
		m.transitions = append(m.transitions, msg.status)
		if isTerminal(msg.status) {
			return m, nil
		}
		return m, pollCmd(m.conn)

	case polledMsg:
		if msg.status != m.status {
			m.transitions = append(m.transitions, msg.status)
		}
		m.status = msg.status
		if isTerminal(msg.status) {
			return m, nil
		}
		return m, pollCmd(m.conn)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.conn.Destroy()
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the connection target, current status, transition
// history, and any recorded error.
func (m Model) View() string {
	target := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if m.cfg.UDS {
		target = m.cfg.Host + " (uds)"
	}

	out := styleHeader.Render("ascoreprobe") + styleDim.Render(" "+target) + "\n\n"
	out += "status: " + statusStyle(m.status).Render(m.status.String()) + "\n"

	if m.conn != nil {
		if errs := m.conn.Err(); errs.IsSet() {
			out += styleBad.Render(fmt.Sprintf("error: %s: %s", errs.Code, errs.Message)) + "\n"
		}
	}

	out += "\n" + styleDim.Render("history:") + "\n"
	for _, s := range m.transitions {
		out += "  " + statusStyle(s).Render(s.String()) + "\n"
	}

	if !m.quitting {
		out += "\n" + styleDim.Render("press q to quit")
	}
	return out
}

func statusStyle(s ascore.Status) lipgloss.Style {
	switch s {
	case ascore.StatusIdle:
		return styleOK
	case ascore.StatusConnectFailed, ascore.StatusParameterError:
		return styleBad
	default:
		return styleDim
	}
}
