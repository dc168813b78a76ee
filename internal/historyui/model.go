// Package historyui provides the Bubble Tea run history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/stats"
	"github.com/verte-zerg/ghosttype/internal/store"
)

const (
	tabRuns = iota
	tabDetail
	tabChars
)

const topChars = 15

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store  *store.Store
	filter model.HistoryFilter

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	runs      table.Model
	detail    viewport.Model
	chars     viewport.Model
	detailID  string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, filter model.HistoryFilter) *Model {
	m := &Model{
		store:  st,
		filter: filter,
		tabs:   []string{"Runs", "Run Detail", "Characters"},
		detail: viewport.New(0, 0),
		chars:  viewport.New(0, 0),
		filterInputs: []textinput.Model{
			newFilterInput("Target: "),
			newFilterInput("Since (YYYY-MM-DD): "),
			newFilterInput("Last: "),
		},
	}
	m.runs = table.New(table.WithColumns(runColumns()), table.WithFocused(true), table.WithHeight(1))
	m.runs.SetStyles(tableStyles())
	m.detail.SetContent("Select a run and press enter.")
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "/":
			m.filterMode = true
			m.filterError = ""
			m.setInputsFromFilter()
			return m, m.setFilterIndex(0)
		case "enter":
			if m.activeTab == tabRuns {
				m.openSelected()
			}
			return m, nil
		case "esc":
			m.activeTab = tabRuns
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabRuns:
			m.runs, cmd = m.runs.Update(msg)
		case tabDetail:
			m.detail, cmd = m.detail.Update(msg)
		case tabChars:
			m.chars, cmd = m.chars.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	return strings.Join([]string{header, fitLines(m.renderBody(), m.width, bodyHeight), footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	return input
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Target", Width: 22},
		{Title: "Status", Width: 9},
		{Title: "Chars", Width: 6},
		{Title: "Events", Width: 6},
		{Title: "WPM", Width: 6},
		{Title: "Done", Width: 5},
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(true)
	return styles
}

func runRows(runs []model.RunAggregate) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	// Newest first in the browser.
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		wpm, completion := stats.RunMetrics(r)
		rows = append(rows, table.Row{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Target,
			string(r.Status),
			strconv.Itoa(r.TextLength),
			strconv.Itoa(r.Events),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%.0f%%", completion*100),
		})
	}
	return rows
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.filter)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.report = report
	m.runs.SetRows(runRows(report.Runs))
	m.runs.GotoTop()

	var buf bytes.Buffer
	if len(report.Runs) > 1 {
		wpms := make([]float64, len(report.Runs))
		for i, r := range report.Runs {
			wpms[i], _ = stats.RunMetrics(r)
		}
		fmt.Fprintf(&buf, "WPM trend: %s\n\n", stats.Sparkline(wpms))
	}
	buf.WriteString("Most corrected characters\n")
	if err := stats.RenderCharTable(&buf, stats.TopCorrectedChars(report.Chars, topChars)); err != nil {
		m.errMsg = err.Error()
	}
	m.chars.SetContent(strings.TrimRight(buf.String(), "\n"))
}

// openSelected loads the highlighted run into the detail tab.
func (m *Model) openSelected() {
	idx := m.runs.Cursor()
	if idx < 0 || idx >= len(m.report.Runs) {
		return
	}
	agg := m.report.Runs[len(m.report.Runs)-1-idx]
	content, err := m.renderDetail(agg.ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.detailID = agg.ID
	m.detail.SetContent(content)
	m.detail.GotoTop()
	m.activeTab = tabDetail
}

func (m *Model) renderDetail(id string) (string, error) {
	ctx := context.Background()
	run, err := m.store.GetRun(ctx, id)
	if err != nil {
		return "", err
	}
	chars, err := m.store.ListRunChars(ctx, id)
	if err != nil {
		return "", err
	}
	s := run.Settings
	lines := []string{
		titleStyle.Render("Run " + run.ID),
		fmt.Sprintf("Started:  %s", run.StartedAt.Local().Format(time.DateTime)),
		fmt.Sprintf("Ended:    %s", run.EndedAt.Local().Format(time.DateTime)),
		fmt.Sprintf("Target:   %s", run.Target),
		fmt.Sprintf("Status:   %s", run.Status),
		fmt.Sprintf("Seed:     %d", run.Seed),
		fmt.Sprintf("Events:   %d/%d consumed, %d deletes", run.Consumed, run.Events, run.Deletes),
		fmt.Sprintf("Timing:   planned %s, elapsed %s", stats.FormatMs(run.PlannedMs), stats.FormatMs(float64(run.ElapsedMs))),
		fmt.Sprintf("Settings: wpm=%.0f mistakes=%.3f extra=%d randomness=%s", s.WPM, s.MistakeProbability, s.MaxExtraLetters, s.Randomness),
	}
	if run.ErrorDetail != "" {
		lines = append(lines, errorStyle.Render("Error:    "+run.ErrorDetail))
	}
	var buf bytes.Buffer
	if err := stats.RenderCharTable(&buf, chars); err != nil {
		return "", err
	}
	lines = append(lines, "", strings.TrimRight(buf.String(), "\n"))
	return strings.Join(lines, "\n"), nil
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyHeight := max(1, m.height-lipgloss.Height(m.renderHeader())-lipgloss.Height(m.renderFooter()))
	m.runs.SetWidth(m.width)
	m.runs.SetHeight(max(1, bodyHeight-1))
	m.detail.Width, m.detail.Height = m.width, bodyHeight
	m.chars.Width, m.chars.Height = m.width, bodyHeight
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabRuns {
		m.runs.Focus()
	} else {
		m.runs.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + headerStyle.Render(truncateLine(m.filterSummary(), m.width))
}

func (m *Model) filterSummary() string {
	target, since, last := "any", "any", "all"
	if m.filter.Target != "" {
		target = m.filter.Target
	}
	if m.filter.Since != nil {
		since = m.filter.Since.Format(time.DateOnly)
	}
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	return fmt.Sprintf("Filter: target=%s  since=%s  last=%s  runs=%d", target, since, last, len(m.report.Runs))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	switch m.activeTab {
	case tabRuns:
		if len(m.report.Runs) == 0 {
			return "No runs found."
		}
		return m.runs.View()
	case tabDetail:
		return m.detail.View()
	default:
		return m.chars.View()
	}
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Open: enter  Back: esc  Filter: /  Quit: q"
	if m.filterMode {
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	}
	out := headerStyle.Render(help)
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render(m.errMsg)
	}
	return out
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		filter, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filter = filter
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setInputsFromFilter() {
	m.filterInputs[0].SetValue(m.filter.Target)
	m.filterInputs[1].SetValue("")
	if m.filter.Since != nil {
		m.filterInputs[1].SetValue(m.filter.Since.Format(time.DateOnly))
	}
	m.filterInputs[2].SetValue("")
	if m.filter.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.filter.Last))
	}
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// ParseFilterInputs validates the textual filter fields.
func ParseFilterInputs(target, since, last string) (model.HistoryFilter, error) {
	filter := model.HistoryFilter{Target: strings.TrimSpace(target)}
	if s := strings.TrimSpace(since); s != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		filter.Since = &parsed
	}
	if l := strings.TrimSpace(last); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return model.HistoryFilter{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		filter.Last = n
	}
	return filter, nil
}

func (m *Model) parseFilter() (model.HistoryFilter, error) {
	return ParseFilterInputs(m.filterInputs[0].Value(), m.filterInputs[1].Value(), m.filterInputs[2].Value())
}
