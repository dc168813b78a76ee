// Package tui provides the Bubble Tea replay view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/replay"
	statsPkg "github.com/verte-zerg/ghosttype/internal/stats"
)

const refreshInterval = 250 * time.Millisecond

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type progressMsg replay.Progress

type doneMsg struct {
	result replay.Result
	err    error
}

type refreshMsg time.Time

// Options configures the replay view.
type Options struct {
	// Previous is the most recent stored run, shown in the footer.
	Previous *model.RunAggregate
	// PlayerOptions are passed to the replay.Player.
	PlayerOptions []replay.Option
}

// Model implements the Bubble Tea replay UI. It owns a replay.Player that
// drains the plan into the injector on its own goroutine.
type Model struct {
	plan     model.Plan
	target   []rune
	player   *replay.Player
	previous *model.RunAggregate

	ctx     context.Context
	cancel  context.CancelFunc
	updates chan replay.Progress

	width  int
	height int

	shown    []rune
	applied  int
	elapsed  time.Duration
	paused   bool
	stopping bool
	done     bool
	result   replay.Result
	err      error

	bar  progress.Model
	help help.Model
	keys keyMap
}

// NewModel builds a replay view for plan, whose events reconstruct text.
func NewModel(text string, plan model.Plan, inj replay.Injector, opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		plan:     plan,
		target:   []rune(text),
		previous: opts.Previous,
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan replay.Progress, 64),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     keys,
	}
	playerOpts := append([]replay.Option{replay.WithProgress(m.report)}, opts.PlayerOptions...)
	m.player = replay.NewPlayer(plan, inj, playerOpts...)
	return m
}

// Result returns how the replay ended. Valid after the program exits.
func (m *Model) Result() (replay.Result, error) {
	return m.result, m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.run(), m.waitForProgress(), refresh())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, msg.Width/2)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Stop):
			if m.done {
				return m, tea.Quit
			}
			m.stopping = true
			m.player.Stop()
			return m, nil
		case key.Matches(msg, m.keys.Pause):
			if !m.done {
				m.player.Toggle()
				m.paused = m.player.Paused()
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil
	case progressMsg:
		m.advanceTo(msg.Consumed)
		m.elapsed = msg.Elapsed
		return m, m.waitForProgress()
	case refreshMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = m.player.Elapsed()
		return m, refresh()
	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		m.advanceTo(msg.result.Consumed)
		m.elapsed = msg.result.Elapsed
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.target) == 0 {
		return ""
	}
	cursor := -1
	if len(m.shown) < len(m.target) {
		cursor = len(m.shown)
	}
	styled := buildStyledRunes(m.target, m.shown, cursor)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styled) + "\n" + m.renderFooter()
	}
	contentWidth := max(1, int(float64(m.width)*0.70))
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth))

	bottom := []string{
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.bar.ViewAs(m.fraction())),
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderFooter()),
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.help.View(m.keys)),
	}
	bodyHeight := m.height - len(bottom)
	if bodyHeight < 1 {
		return content
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + strings.Join(bottom, "\n")
}

func (m *Model) report(p replay.Progress) {
	select {
	case m.updates <- p:
	default:
		// The final doneMsg carries the authoritative position.
	}
}

func (m *Model) run() tea.Cmd {
	return func() tea.Msg {
		res, err := m.player.Run(m.ctx)
		return doneMsg{result: res, err: err}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-m.updates:
			return progressMsg(p)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// advanceTo applies consumed plan events to the displayed text.
func (m *Model) advanceTo(consumed int) {
	for ; m.applied < consumed && m.applied < len(m.plan.Events); m.applied++ {
		switch ev := m.plan.Events[m.applied].(type) {
		case model.TypeEvent:
			m.shown = append(m.shown, ev.Char)
		case model.DeleteEvent:
			if len(m.shown) > 0 {
				m.shown = m.shown[:len(m.shown)-1]
			}
		}
	}
}

func (m *Model) fraction() float64 {
	if m.plan.Len() == 0 {
		return 1
	}
	return float64(m.applied) / float64(m.plan.Len())
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Progress %d%%", int(m.fraction()*100)),
		fmt.Sprintf("Events %d/%d", m.applied, m.plan.Len()),
		fmt.Sprintf("Elapsed %s", statsPkg.FormatMs(float64(m.elapsed.Milliseconds()))),
		fmt.Sprintf("ETA %s", statsPkg.FormatMs(m.plan.RemainingMs(m.applied))),
	}
	if m.previous != nil {
		wpm, _ := statsPkg.RunMetrics(*m.previous)
		segments = append(segments, fmt.Sprintf("Last %.1f WPM", wpm))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	switch {
	case m.done:
		footer += "  " + pausedStyle.Render(strings.ToUpper(string(m.result.Status)))
	case m.stopping:
		footer += "  " + pausedStyle.Render("STOPPING")
	case m.paused:
		footer += "  " + pausedStyle.Render("PAUSED")
	}
	return footer
}
