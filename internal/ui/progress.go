package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"gxpc/internal/pipeline"
	"gxpc/internal/tree"
)

type progressModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	byUnit  map[tree.TemplateName]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	unit   tree.TemplateName
	status string
	stage  pipeline.Stage
	errors int
	final  bool
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-unit progress.
// The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		byUnit:  make(map[tree.TemplateName]int, len(files)),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
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
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	finished := 0
	for _, item := range m.items {
		if item.final {
			finished++
		}
	}
	header := fmt.Sprintf("%s [%d/%d]", m.title, finished, len(m.items))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)
	unitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	for _, item := range m.items {
		name := truncate(item.path, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s", statusStyled, name)
		if !item.unit.IsZero() && runewidth.StringWidth(name)+len(item.unit.String())+3 <= nameWidth {
			b.WriteString(unitStyle.Render(" (" + item.unit.String() + ")"))
		}
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString("\n  " + m.tally() + "\n")
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

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if ev.File != "" && ok && !ev.Unit.IsZero() {
		m.byUnit[ev.Unit] = idx
	}
	if !ok {
		// события стадий приходят только с именем шаблона
		if idx, ok = m.byUnit[ev.Unit]; !ok {
			return nil
		}
	}
	item := &m.items[idx]
	if item.final {
		return nil
	}
	if !ev.Unit.IsZero() {
		item.unit = ev.Unit
	}
	if ev.Stage != "" {
		item.stage = ev.Stage
	}
	item.errors = ev.Errors
	item.status = statusLabel(ev.Status, item.stage, item.errors)
	item.final = ev.Status == StatusDone || ev.Status == StatusCached || ev.Status == StatusError
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		if item.final {
			total += 1.0
		} else {
			total += progressFromStage(item.stage)
		}
	}
	return total / float64(len(m.items))
}

// tally summarizes the finished units: "3 ok, 1 cached, 1 failed".
func (m *progressModel) tally() string {
	var ok, cached, failed int
	for _, item := range m.items {
		switch {
		case item.status == "cached":
			cached++
		case item.status == "ok":
			ok++
		case strings.Contains(item.status, "error"):
			failed++
		}
	}
	return fmt.Sprintf("%d ok, %d cached, %d failed", ok, cached, failed)
}

func progressFromStage(stage pipeline.Stage) float64 {
	i := slices.Index(pipeline.Stages, stage)
	if i < 0 {
		return 0
	}
	return float64(i+1) / float64(len(pipeline.Stages)+1)
}

func statusLabel(status Status, stage pipeline.Stage, errors int) string {
	switch status {
	case StatusQueued:
		return "queued"
	case StatusDone:
		return "ok"
	case StatusCached:
		return "cached"
	case StatusError:
		if errors > 1 {
			return fmt.Sprintf("%d errors", errors)
		}
		return "error"
	case StatusWorking:
		if stage == "" {
			return "loading"
		}
		return string(stage)
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	if strings.Contains(status, "error") {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}
	switch status {
	case "ok", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "loading", "bind", "collapse", "escape", "msgextract", "validate":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// the tail counts toward width
	return runewidth.Truncate(value, width, "...")
}
