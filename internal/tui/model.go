package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DesolationStaging/mediarm/internal/app"
	"github.com/DesolationStaging/mediarm/registry"
)

const refreshInterval = 2 * time.Second

// Controller defines the subset of app.App behaviour the monitor needs.
type Controller interface {
	Status() (app.DaemonStatus, error)
	StartDaemon() (*app.DaemonHandle, error)
	Snapshot(ctx context.Context, timeout time.Duration) (registry.Snapshot, error)
}

// Model represents the Bubble Tea state for the live registry monitor.
type Model struct {
	controller Controller

	list list.Model

	daemonStatus app.DaemonStatus
	statusMsg    string

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a monitor model with default styles.
func New(ctrl Controller) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Registered clients"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		list:       lst,
		statusMsg:  "Checking daemon status…",
		loading:    true,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller) error {
	m := New(ctrl)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(checkDaemonStatusCmd(m.controller), loadSnapshotCmd(m.controller), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 4 {
			m.list.SetSize(msg.Width, msg.Height-4)
		}

	case daemonStatusMsg:
		m.daemonStatus = msg.status
		if msg.status.Running {
			if msg.status.PID > 0 {
				m.statusMsg = fmt.Sprintf("Daemon running (pid %d). Press r to refresh, q to quit.", msg.status.PID)
			} else {
				m.statusMsg = "Daemon running. Press r to refresh, q to quit."
			}
		} else {
			m.statusMsg = "Daemon is not running. Press s to start it."
			m.list.SetItems(nil)
		}

	case snapshotLoadedMsg:
		m.loading = false
		m.err = nil
		m.list.SetItems(itemsFromSnapshot(msg.snapshot))
		m.lastUpdated = time.Now()

	case daemonStartedMsg:
		m.statusMsg = "Daemon started."
		return m, tea.Batch(checkDaemonStatusCmd(m.controller), loadSnapshotCmd(m.controller))

	case tickMsg:
		if m.daemonStatus.Running {
			return m, tea.Batch(loadSnapshotCmd(m.controller), tickCmd())
		}
		return m, tickCmd()

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadSnapshotCmd(m.controller)
		case "s":
			if !m.daemonStatus.Running {
				m.statusMsg = "Starting daemon…"
				return m, startDaemonCmd(m.controller)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true)
	if !m.daemonStatus.Running {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	} else {
		statusStyle = statusStyle.Foreground(lipgloss.Color("42"))
	}
	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading registry…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil && m.daemonStatus.Running {
		b.WriteString("No clients registered.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	help := fmt.Sprintf("Commands: q quit • r reload • s start daemon (auto-refresh every %s)", refreshInterval)
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// clientItem adapts one client's registry entry to the bubbles list item interface.
type clientItem struct {
	pid       int32
	clientID  int64
	resources []string
}

func (c clientItem) Title() string {
	return fmt.Sprintf("pid=%d client=%d", c.pid, c.clientID)
}

func (c clientItem) Description() string {
	if len(c.resources) == 0 {
		return "(no resources declared)"
	}
	return strings.Join(c.resources, ", ")
}

func (c clientItem) FilterValue() string {
	return fmt.Sprintf("%d %d %s", c.pid, c.clientID, strings.Join(c.resources, " "))
}

func itemsFromSnapshot(snap registry.Snapshot) []list.Item {
	items := make([]list.Item, 0)
	for _, bucket := range snap.Buckets {
		for _, client := range bucket.Clients {
			resources := make([]string, 0, len(client.Resources))
			for _, r := range client.Resources {
				resources = append(resources, fmt.Sprintf("%s=%d", r.Kind, r.Value))
			}
			items = append(items, clientItem{pid: bucket.PID, clientID: client.ClientID, resources: resources})
		}
	}
	return items
}

type daemonStatusMsg struct {
	status app.DaemonStatus
}

type snapshotLoadedMsg struct {
	snapshot registry.Snapshot
}

type daemonStartedMsg struct{}

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func checkDaemonStatusCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctrl.Status()
		if err != nil {
			return errMsg{err}
		}
		return daemonStatusMsg{status: status}
	}
}

func loadSnapshotCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		snap, err := ctrl.Snapshot(ctx, 4*time.Second)
		if err != nil {
			return errMsg{err}
		}
		return snapshotLoadedMsg{snapshot: snap}
	}
}

func startDaemonCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		if _, err := ctrl.StartDaemon(); err != nil {
			return errMsg{err}
		}
		time.Sleep(300 * time.Millisecond)
		return daemonStartedMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
