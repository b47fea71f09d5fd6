// Package tui is the terminal front end of the labeler: a demo picker and a
// labeling view driven by a labeler.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	"demo-labeler/labeler"
	"demo-labeler/models"
)

const (
	defaultWidth = 80
	fastStep     = 10
)

type viewState int

const (
	viewPicker viewState = iota
	viewLabeling
)

// StateStore remembers the selection between runs.
type StateStore interface {
	UpdateState(demo, camera string, mode models.Label) error
}

// Options configures a Model.
type Options struct {
	// InitialDemo is opened as soon as the demo list contains it.
	InitialDemo string
	State       StateStore
	Logger      hclog.Logger
}

type changeMsg struct{}

type taskDoneMsg struct {
	name string
	err  error
}

// Model is the bubbletea model of the labeler.
type Model struct {
	ctrl     *labeler.Controller
	renderer labeler.Renderer
	store    StateStore
	logger   hclog.Logger

	theme theme
	keys  keyMap
	help  help.Model

	state        viewState
	snap         labeler.Snapshot
	picked       int
	initialDemo  string
	confirmClear bool
	status       string
	statusErr    bool
	saved        models.SelectionState

	width  int
	height int
}

// New creates the model. The controller must outlive the program.
func New(ctrl *labeler.Controller, linker labeler.FrameLinker, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return Model{
		ctrl:        ctrl,
		renderer:    labeler.NewRenderer(linker),
		store:       opts.State,
		logger:      logger.Named("tui"),
		theme:       newTheme(),
		keys:        newKeyMap(),
		help:        help.New(),
		state:       viewPicker,
		snap:        ctrl.Snapshot(),
		initialDemo: opts.InitialDemo,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.ctrl.Changes()),
		waitForTask("list demos", m.ctrl.LoadDemos()),
	)
}

// waitForChange blocks until the controller publishes a change.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return changeMsg{}
	}
}

func waitForTask(name string, task *labeler.Task) tea.Cmd {
	return func() tea.Msg {
		return taskDoneMsg{name: name, err: task.Wait(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case changeMsg:
		m.snap = m.ctrl.Snapshot()
		m.saveSelection()
		cmd := m.openInitialDemo()
		return m, tea.Batch(waitForChange(m.ctrl.Changes()), cmd)

	case taskDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.setError(fmt.Errorf("%s: %w", msg.name, msg.err))
		} else if msg.name == "clear labels" {
			m.setStatus("labels cleared")
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.state == viewPicker {
			return m.updatePicker(msg)
		}
		return m.updateLabeling(msg)
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.picked > 0 {
			m.picked--
		}
	case key.Matches(msg, m.keys.Down):
		if m.picked < len(m.snap.Demos)-1 {
			m.picked++
		}
	case key.Matches(msg, m.keys.Open):
		if m.picked < len(m.snap.Demos) {
			return m.open(m.snap.Demos[m.picked])
		}
	}
	return m, nil
}

func (m Model) updateLabeling(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		m.confirmClear = false
		if key.Matches(msg, m.keys.Confirm) {
			m.setStatus("clearing labels")
			return m, waitForTask("clear labels", m.ctrl.ClearAll())
		}
		m.setStatus("clear cancelled")
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PlayPause):
		m.ctrl.Toggle()
	case key.Matches(msg, m.keys.Prev):
		m.ctrl.Step(-1)
	case key.Matches(msg, m.keys.Next):
		m.ctrl.Step(1)
	case key.Matches(msg, m.keys.PrevFast):
		m.ctrl.Step(-fastStep)
	case key.Matches(msg, m.keys.NextFast):
		m.ctrl.Step(fastStep)
	case key.Matches(msg, m.keys.First):
		m.ctrl.Seek(0)
	case key.Matches(msg, m.keys.Last):
		m.ctrl.Seek(m.snap.Length - 1)
	case key.Matches(msg, m.keys.Good):
		m.ctrl.SetMode(labeler.ModeGood)
	case key.Matches(msg, m.keys.Bad):
		m.ctrl.SetMode(labeler.ModeBad)
	case key.Matches(msg, m.keys.Label):
		if err := m.ctrl.LabelCurrent(); err != nil {
			m.setError(err)
		}
	case key.Matches(msg, m.keys.Unset):
		if err := m.ctrl.UnsetCurrent(); err != nil {
			m.setError(err)
		}
	case key.Matches(msg, m.keys.Camera):
		m.ctrl.CycleCamera()
	case key.Matches(msg, m.keys.Clear):
		if m.snap.Session != "" {
			m.confirmClear = true
			m.setStatus(fmt.Sprintf("clear every label of %s? press y to confirm", m.snap.Session))
		}
	case key.Matches(msg, m.keys.Back):
		m.ctrl.Pause()
		m.state = viewPicker
	}
	m.snap = m.ctrl.Snapshot()
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != viewLabeling || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	_, row := m.labelingLines()
	if msg.Y != row && msg.Y != row+1 {
		return m, nil
	}
	tl := newTimeline(m.snap.Length, m.timelineWidth())
	if frame := tl.frameAt(msg.X); frame >= 0 {
		m.ctrl.JumpToFrame(frame)
		m.snap = m.ctrl.Snapshot()
	}
	return m, nil
}

func (m Model) open(demo string) (tea.Model, tea.Cmd) {
	m.state = viewLabeling
	m.confirmClear = false
	m.status = ""
	task := m.ctrl.SelectSession(demo)
	m.snap = m.ctrl.Snapshot()
	return m, waitForTask("load "+demo, task)
}

// openInitialDemo opens the requested demo once the demo list is known.
func (m *Model) openInitialDemo() tea.Cmd {
	if m.initialDemo == "" || len(m.snap.Demos) == 0 {
		return nil
	}
	demo := m.initialDemo
	m.initialDemo = ""
	for i, d := range m.snap.Demos {
		if d == demo {
			m.picked = i
			next, cmd := m.open(demo)
			*m = next.(Model)
			return cmd
		}
	}
	m.setError(fmt.Errorf("demo %q not found", demo))
	return nil
}

// saveSelection persists session, camera and mode when one of them changed.
func (m *Model) saveSelection() {
	if m.store == nil || m.snap.Session == "" || m.snap.Loading {
		return
	}
	current := models.SelectionState{
		Demo:   m.snap.Session,
		Camera: m.snap.Camera,
		Mode:   m.snap.Mode.Label(),
	}
	if current == m.saved {
		return
	}
	if err := m.store.UpdateState(current.Demo, current.Camera, current.Mode); err != nil {
		m.logger.Warn("failed to save selection", "error", err)
		return
	}
	m.saved = current
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.logger.Warn("action failed", "error", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) timelineWidth() int {
	if m.width > 0 {
		return m.width
	}
	return defaultWidth
}

func (m Model) View() string {
	var body string
	if m.state == viewPicker {
		body = m.viewPicker()
	} else {
		lines, _ := m.labelingLines()
		body = strings.Join(lines, "\n")
	}
	return body
}

func (m Model) viewPicker() string {
	var sb strings.Builder
	sb.WriteString(m.theme.title.Render("demo labeler"))
	sb.WriteString("\n\n")

	switch {
	case len(m.snap.Demos) == 0:
		sb.WriteString(m.theme.muted.Render("no demos"))
		sb.WriteString("\n")
	default:
		maxVisible := len(m.snap.Demos)
		if m.height > 8 && maxVisible > m.height-8 {
			maxVisible = m.height - 8
		}
		start := 0
		if m.picked >= maxVisible {
			start = m.picked - maxVisible + 1
		}
		end := start + maxVisible
		if end > len(m.snap.Demos) {
			end = len(m.snap.Demos)
		}
		for i := start; i < end; i++ {
			if i == m.picked {
				sb.WriteString(m.theme.selected.Render("> " + m.snap.Demos[i]))
			} else {
				sb.WriteString(m.theme.text.Render("  " + m.snap.Demos[i]))
			}
			sb.WriteString("\n")
		}
		if end-start < len(m.snap.Demos) {
			sb.WriteString(m.theme.muted.Render(fmt.Sprintf("showing %d-%d of %d", start+1, end, len(m.snap.Demos))))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString(m.help.View(pickerHelp{m.keys}))
	return sb.String()
}

// labelingLines renders the labeling view and reports the row of the
// timeline bar, which mouse clicks are matched against.
func (m Model) labelingLines() ([]string, int) {
	s := m.snap
	th := m.theme
	lines := []string{th.title.Render(s.Session)}

	info := fmt.Sprintf("frame %d / %d", s.Cursor, s.MaxFrame())
	if s.Camera != "" {
		info = "camera " + s.Camera + "  " + info
	}
	playing := th.muted.Render("paused")
	if s.Playing {
		playing = th.info.Render("playing")
	}
	mode := th.modeStyle(s.Mode == labeler.ModeGood).Render("mode " + s.Mode.String())
	lines = append(lines, th.text.Render(info)+"  "+playing+"  "+mode, "")

	refs := m.renderer.Grid(s)
	switch {
	case s.Loading:
		lines = append(lines, th.muted.Render("loading..."))
	case len(refs) == 0:
		lines = append(lines, th.muted.Render("no frames"))
	default:
		for _, ref := range refs {
			name := fmt.Sprintf("  %-24s", ref.Camera)
			if ref.Selected {
				name = th.selected.Render(fmt.Sprintf("> %-24s", ref.Camera))
			}
			lines = append(lines, name+" "+th.muted.Render(ref.URL))
		}
	}
	lines = append(lines, "")

	row := len(lines)
	tl := newTimeline(s.Length, m.timelineWidth())
	var labels []models.Label
	if s.LabelsReady() {
		labels = s.Labels
	}
	bar, marker := tl.render(th, labels, s.Cursor)
	lines = append(lines, bar, marker)

	counts := fmt.Sprintf("%s  %s  %s",
		th.ok.Render(fmt.Sprintf("good %d", s.Good)),
		th.danger.Render(fmt.Sprintf("bad %d", s.Bad)),
		th.muted.Render(fmt.Sprintf("unset %d", s.Unset)),
	)
	lines = append(lines, counts, "")
	if status := m.statusLine(); status != "" {
		lines = append(lines, strings.TrimSuffix(status, "\n"))
	}
	lines = append(lines, m.help.View(labelingHelp{m.keys}))
	return lines, row
}

func (m Model) statusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.theme.danger.Render(m.status) + "\n"
	}
	return m.theme.warn.Render(m.status) + "\n"
}
