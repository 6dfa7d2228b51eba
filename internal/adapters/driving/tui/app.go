package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driving/tui/styles"
	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// exchange is one question and its answer in the transcript.
type exchange struct {
	question string
	answer   string
	sources  []string
	pending  bool
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	answer *domain.Answer
}

// answerErrMsg carries a failed answer back into the update loop.
type answerErrMsg struct {
	err error
}

// statsMsg carries knowledge base counters for the header.
type statsMsg struct {
	documents int
	chunks    int
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// sessionID scopes conversation history for this run.
	sessionID string

	// transcript holds completed and pending exchanges, oldest first.
	transcript []exchange

	input   textinput.Model
	spin    spinner.Model
	vp      viewport.Model
	stats   statsMsg
	waiting bool
	width   int
	height  int
	ready   bool
}

// New creates the chat application.
func New(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := styles.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about your fleet..."
	ti.Focus()
	ti.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	return &App{
		ports:     ports,
		ctx:       ctx,
		styles:    s,
		sessionID: uuid.NewString(),
		input:     ti,
		spin:      sp,
	}, nil
}

// Init initialises the application.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.loadStats())
}

// loadStats fetches knowledge base counters for the header. Returns nil
// when no document service is wired.
func (a *App) loadStats() tea.Cmd {
	if a.ports.Document == nil {
		return nil
	}
	return func() tea.Msg {
		stats, err := a.ports.Document.Stats(a.ctx)
		if err != nil {
			return nil
		}
		return statsMsg{documents: stats.Documents, chunks: stats.Chunks}
	}
}

// Update handles messages and updates application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			if cmd := a.submit(); cmd != nil {
				cmds = append(cmds, cmd, a.spin.Tick)
			}
		}

	case answerMsg:
		a.resolve(msg.answer.Text, sourceTags(msg.answer))
	case answerErrMsg:
		a.resolve(fmt.Sprintf("error: %v", msg.err), nil)

	case statsMsg:
		a.stats = msg

	case spinner.TickMsg:
		if a.waiting {
			var cmd tea.Cmd
			a.spin, cmd = a.spin.Update(msg)
			a.refresh()
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	subtitle := "  ask about machines, components and inspections"
	if a.stats.documents > 0 {
		subtitle = fmt.Sprintf("  %d documents, %d chunks indexed", a.stats.documents, a.stats.chunks)
	}
	title := a.styles.Title.Render("FleetMind") + a.styles.Muted.Render(subtitle)

	help := a.styles.Help.Render("enter: ask • esc: quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		a.vp.View(),
		a.styles.InputField.Width(a.width-2).Render(a.input.View()),
		help,
	)
}

// submit starts answering the typed question. Returns nil when there is
// nothing to do.
func (a *App) submit() tea.Cmd {
	query := strings.TrimSpace(a.input.Value())
	if query == "" || a.waiting {
		return nil
	}

	a.transcript = append(a.transcript, exchange{question: query, pending: true})
	a.input.SetValue("")
	a.waiting = true
	a.refresh()

	return func() tea.Msg {
		answer, err := a.ports.Answer.Answer(a.ctx, query, a.sessionID)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

// resolve completes the pending exchange.
func (a *App) resolve(text string, sources []string) {
	a.waiting = false
	if n := len(a.transcript); n > 0 && a.transcript[n-1].pending {
		a.transcript[n-1].answer = text
		a.transcript[n-1].sources = sources
		a.transcript[n-1].pending = false
	}
	a.refresh()
}

// layout resizes the viewport to the space left by the chrome.
func (a *App) layout() {
	inputHeight := lipgloss.Height(a.styles.InputField.Render(""))
	vpHeight := a.height - inputHeight - 2 // title and help lines
	if vpHeight < 3 {
		vpHeight = 3
	}

	if a.vp.Width == 0 {
		a.vp = viewport.New(a.width, vpHeight)
	} else {
		a.vp.Width = a.width
		a.vp.Height = vpHeight
	}
	a.input.Width = a.width - 6
	a.refresh()
}

// refresh re-renders the transcript into the viewport.
func (a *App) refresh() {
	var sb strings.Builder
	for i, ex := range a.transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(a.styles.Question.Render("You: ") + ex.question)
		sb.WriteString("\n")
		if ex.pending {
			sb.WriteString(a.spin.View() + a.styles.Muted.Render(" thinking..."))
			continue
		}
		sb.WriteString(a.styles.Answer.Render(ex.answer))
		if len(ex.sources) > 0 {
			sb.WriteString("\n" + a.styles.Source.Render("sources: "+strings.Join(ex.sources, ", ")))
		}
	}

	a.vp.SetContent(sb.String())
	a.vp.GotoBottom()
}

// sourceTags renders each source as its citation tag.
func sourceTags(answer *domain.Answer) []string {
	tags := make([]string, len(answer.Sources))
	for i, src := range answer.Sources {
		tags[i] = "[" + src.Identifier() + "]"
	}
	return tags
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, ports *Ports) error {
	app, err := New(ctx, ports)
	if err != nil {
		return err
	}

	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
