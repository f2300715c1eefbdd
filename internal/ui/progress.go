package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pmgraph/internal/driver"
)

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	prog       progress.Model
	runs       []runItem
	stageLabel string
	width      int
	done       bool
}

type runItem struct {
	label  string
	status string
	stage  driver.Stage
	failed bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders the analysis of
// the given runs. Runs that are first seen in an event are appended. The
// model quits when events is closed.
func NewProgressModel(title string, runs []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]runItem, len(runs))
	for i, r := range runs {
		items[i] = runItem{label: r, status: "queued"}
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		runs:    items,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	for _, r := range m.runs {
		status := styleStatus(r.status).Render(fmt.Sprintf("%12s", r.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(r.label, nameWidth))
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	for ev.Run >= len(m.runs) {
		m.runs = append(m.runs, runItem{label: fmt.Sprintf("run %d", len(m.runs)), status: "queued"})
	}
	if ev.Run < 0 {
		if label := stageLabel(ev.Stage); label != "" {
			m.stageLabel = label
		}
		if ev.Status == driver.StatusCached {
			for i := range m.runs {
				m.runs[i].status = "cached"
				m.runs[i].stage = driver.StageLayout
			}
			return m.prog.SetPercent(1)
		}
		return nil
	}
	r := &m.runs[ev.Run]
	r.stage = ev.Stage
	switch ev.Status {
	case driver.StatusError:
		r.status, r.failed = "error", true
	case driver.StatusDone:
		r.status = stageLabel(ev.Stage) + " ok"
	case driver.StatusWorking:
		r.status = stageLabel(ev.Stage)
	default:
		r.status = string(ev.Status)
	}

	total := 0.0
	for _, it := range m.runs {
		if it.failed {
			total++
			continue
		}
		total += progressFromStage(it.stage)
	}
	return m.prog.SetPercent(total / float64(max(len(m.runs), 1)))
}

func progressFromStage(stage driver.Stage) float64 {
	switch stage {
	case driver.StageKernel:
		return 0.4
	case driver.StageTrace:
		return 0.7
	case driver.StageCorrelate:
		return 0.9
	case driver.StageNormalize, driver.StageLayout:
		return 1
	}
	return 0
}

func stageLabel(stage driver.Stage) string {
	switch stage {
	case driver.StageLoad:
		return "loading"
	case driver.StageLex:
		return "tokenizing"
	case driver.StageKernel:
		return "timeline"
	case driver.StageTrace:
		return "call graphs"
	case driver.StageCorrelate:
		return "correlating"
	case driver.StageNormalize:
		return "normalizing"
	case driver.StageLayout:
		return "layout"
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch {
	case status == "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case status == "cached", strings.HasSuffix(status, " ok"):
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case status == "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
