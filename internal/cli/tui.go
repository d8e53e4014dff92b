package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/plexsim/pkg/sim"
)

// Watch view styles
var (
	watchHelpKey  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchHelpText = lipgloss.NewStyle().Foreground(colorDim)
	watchError    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// WatchModel - Interactive experiment progress
// =============================================================================

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// WatchModel is the bubbletea model showing the trials of a running
// experiment. It quits on its own once every trial is done.
type WatchModel struct {
	exp   *sim.Experiment
	sched *sim.Scheduler

	Trials   []*sim.Trial
	Threads  int
	Progress int
	Status   sim.Status
	Err      error
	Done     bool
}

func newWatchModel(exp *sim.Experiment, sched *sim.Scheduler) WatchModel {
	m := WatchModel{exp: exp, sched: sched}
	return m.refresh()
}

func (m WatchModel) refresh() WatchModel {
	m.Trials = m.exp.Trials()
	m.Threads = m.sched.NumThreads()
	m.Progress = m.exp.Progress()
	m.Status = m.exp.Status()
	return m
}

func (m WatchModel) Init() tea.Cmd {
	return tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p", " ":
			if m.exp.Status() == sim.StatusRunning {
				m.exp.Pause()
			} else {
				m.Err = m.exp.Play()
			}
		case "n":
			m.Err = m.exp.PlayNext()
		case "s":
			m.exp.Stop()
		case "+":
			m.Err = m.sched.SetNumThreads(m.sched.NumThreads() + 1)
		case "-":
			if n := m.sched.NumThreads(); n > 1 {
				m.Err = m.sched.SetNumThreads(n - 1)
			}
		}
		return m.refresh(), nil

	case tickMsg:
		m = m.refresh()
		if m.Status == sim.StatusFinished || m.Status == sim.StatusInvalid {
			m.Done = true
			return m, tea.Quit
		}
		return m, tick()
	}

	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("plexsim") + " " + StyleDim.Render(m.exp.ID().String()) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %3d%%  %s  %s\n\n",
		progressBar(m.Progress, 100, 40), m.Progress,
		statusStyle(m.Status).Render(m.Status.String()),
		StyleDim.Render(fmt.Sprintf("%d threads", m.Threads))))
	b.WriteString(trialTable(m.Trials, 20) + "\n")

	if m.Err != nil {
		b.WriteString(watchError.Render(m.Err.Error()) + "\n")
	}
	if m.Done {
		return b.String()
	}

	help := []string{
		watchHelpKey.Render("p") + watchHelpText.Render(" pause/resume"),
		watchHelpKey.Render("n") + watchHelpText.Render(" next step"),
		watchHelpKey.Render("s") + watchHelpText.Render(" stop"),
		watchHelpKey.Render("+/-") + watchHelpText.Render(" threads"),
		watchHelpKey.Render("q") + watchHelpText.Render(" quit"),
	}
	b.WriteString("\n" + strings.Join(help, watchHelpText.Render(" · ")) + "\n")
	return b.String()
}
