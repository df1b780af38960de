// Package tui paints the classroom render tree in a terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dkeye/Classroom/internal/app/layout"
	"github.com/dkeye/Classroom/internal/app/render"
	"github.com/dkeye/Classroom/internal/app/session"
	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// boxWidth is the terminal width of a 100% tile.
	boxWidth     = 60
	pixelsPerRow = 45
	actionWait   = 15 * time.Second
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	hostBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11"))

	selfBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12"))

	peerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))

	onStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

type Options struct {
	Sessions *session.Controller
	Roster   core.MemberDirectory
	Role     domain.Role
	LocalID  domain.StreamID
	Channel  domain.ChannelID
}

// Messages
type changedMsg struct {
	source string
}

type tickMsg time.Time

type actionDoneMsg struct {
	action string
	err    error
}

type model struct {
	opts Options

	sessionChanges <-chan struct{}
	rosterChanges  <-chan struct{}

	tree      render.Tree
	width     int
	height    int
	busy      string
	lastError string
}

func newModel(opts Options) model {
	m := model{opts: opts}
	m.refresh()
	return m
}

func (m *model) refresh() {
	m.tree = render.Compose(m.opts.Sessions.Snapshot(), m.opts.Roster.Members(), m.opts.Role)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitFor("session", m.sessionChanges),
		waitFor("roster", m.rosterChanges),
		tickCmd(),
		tea.SetWindowTitle("Classroom - "+m.opts.Channel.String()),
	)
}

// waitFor turns the next signal on ch into a changedMsg.
func waitFor(source string, ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{source: source}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case changedMsg:
		m.refresh()
		if msg.source == "roster" {
			return m, waitFor("roster", m.rosterChanges)
		}
		return m, waitFor("session", m.sessionChanges)

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case actionDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastError = fmt.Sprintf("%s: %v", msg.action, msg.err)
		} else {
			m.lastError = ""
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		if m.busy != "" || m.tree.Active {
			return m, nil
		}
		m.busy = "starting"
		return m, m.startCmd()

	case "x":
		if m.busy != "" || !m.tree.Active {
			return m, nil
		}
		m.busy = "stopping"
		return m, m.stopCmd()

	case "f":
		if s, ok := m.opts.Sessions.Active(); ok {
			s.SetFullscreen(!m.tree.Fullscreen)
			m.refresh()
		}
		return m, nil

	case "o":
		if s, ok := m.opts.Sessions.Active(); ok {
			s.SetOverlayVisible(!m.tree.OverlayVisible)
			m.refresh()
		}
		return m, nil

	case "v":
		if s, ok := m.opts.Sessions.Active(); ok && m.tree.Self != nil {
			s.SetLocalVideo(!m.tree.Self.VideoOn)
			m.refresh()
		}
		return m, nil

	case "m":
		if s, ok := m.opts.Sessions.Active(); ok && m.tree.Self != nil {
			s.SetLocalAudio(!m.tree.Self.AudioOn)
			m.refresh()
		}
		return m, nil
	}
	return m, nil
}

func (m model) startCmd() tea.Cmd {
	ctrl, uid, channel := m.opts.Sessions, m.opts.LocalID, m.opts.Channel
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionWait)
		defer cancel()
		_, err := ctrl.Start(ctx, uid, channel)
		return actionDoneMsg{action: "start", err: err}
	}
}

func (m model) stopCmd() tea.Cmd {
	ctrl := m.opts.Sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionWait)
		defer cancel()
		return actionDoneMsg{action: "stop", err: ctrl.Stop(ctx)}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Classroom"))
	b.WriteString(dimStyle.Render(" - " + m.opts.Channel.String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	if m.tree.Active {
		b.WriteString(m.renderTiles())
		b.WriteString("\n")
	}

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m model) renderStatus() string {
	state := "idle"
	switch {
	case m.busy != "":
		state = m.busy
	case m.tree.Active:
		state = "live"
	}
	parts := []string{
		"uid " + m.opts.LocalID.String(),
		"role " + m.tree.Role,
		fmt.Sprintf("%d members", m.opts.Roster.MemberCount()),
		state,
	}
	if m.tree.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	if m.tree.OverlayVisible {
		parts = append(parts, "overlay")
	}
	return statusStyle.Render(strings.Join(parts, " | "))
}

// renderTiles stacks host and self, then lays peers side by side.
func (m model) renderTiles() string {
	var rows, peers []string
	for _, t := range m.tree.Tiles() {
		switch t.Slot {
		case render.SlotHost:
			rows = append(rows, renderTile(t, hostBoxStyle))
		case render.SlotSelf:
			rows = append(rows, renderTile(t, selfBoxStyle))
		default:
			peers = append(peers, renderTile(t, peerBoxStyle))
		}
	}
	if len(peers) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, peers...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// tileDims maps a tile size to terminal columns and rows.
func tileDims(size layout.TileSize) (int, int) {
	w := boxWidth
	switch size.Width {
	case layout.WidthHalf:
		w = boxWidth / 2
	case layout.WidthThird:
		w = boxWidth / 3
	}
	h := size.Height / pixelsPerRow
	if h < 2 {
		h = 2
	}
	return w, h
}

func renderTile(t render.Tile, style lipgloss.Style) string {
	w, h := tileDims(t.Size)
	label := fmt.Sprintf("%s %s", t.Slot, t.StreamID)
	body := label + "\n" + mediaFlag("cam", t.VideoOn) + " " + mediaFlag("mic", t.AudioOn)
	// border takes two columns and two rows
	return style.Width(w - 2).Height(h - 2).Render(body)
}

func mediaFlag(name string, on bool) string {
	if on {
		return onStyle.Render(name)
	}
	return offStyle.Render(name + " off")
}

func (m model) renderHelp() string {
	sep := "  "
	actions := []string{}
	if m.tree.Active {
		actions = append(actions,
			keyStyle.Render("x")+helpStyle.Render(" stop"),
			keyStyle.Render("f")+helpStyle.Render(" fullscreen"),
			keyStyle.Render("o")+helpStyle.Render(" overlay"),
			keyStyle.Render("v")+helpStyle.Render(" camera"),
			keyStyle.Render("m")+helpStyle.Render(" mic"),
		)
	} else {
		actions = append(actions, keyStyle.Render("s")+helpStyle.Render(" start"))
	}
	actions = append(actions, keyStyle.Render("q")+helpStyle.Render(" quit"))
	return strings.Join(actions, sep)
}

// Run shows the classroom until the user quits or ctx ends. Logs go to
// logPath so they do not corrupt the screen.
func Run(ctx context.Context, opts Options, logPath string) error {
	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.Create(logPath)
		if err == nil {
			defer f.Close()
			out = f
		}
	}
	prev := log.Logger
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	defer func() { log.Logger = prev }()

	m := newModel(opts)
	var cancelSession, cancelRoster func()
	m.sessionChanges, cancelSession = opts.Sessions.Subscribe()
	defer cancelSession()
	m.rosterChanges, cancelRoster = opts.Roster.Subscribe()
	defer cancelRoster()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
