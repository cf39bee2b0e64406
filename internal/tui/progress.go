package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/joe/fsinfo/pkg/scanner"
)

type scanDoneMsg struct {
	outcome scanner.Outcome
}

func waitForOutcome(outcomes <-chan scanner.Outcome) tea.Cmd {
	return func() tea.Msg {
		return scanDoneMsg{outcome: <-outcomes}
	}
}

// ProgressModel shows a spinner and live counters while a scan runs. The
// counters follow events and may lag behind when events are dropped; the
// final numbers come from the Outcome.
type ProgressModel struct {
	root     string
	spinner  spinner.Model
	styles   styles
	bridge   *EventBridge
	outcomes <-chan scanner.Outcome
	cancel   context.CancelFunc
	now      func() time.Time

	started    time.Time
	dirs       int
	entries    int
	problems   int
	lastPath   string
	cancelling bool
	outcome    *scanner.Outcome
}

// NewProgressModel creates a model fed by bridge and finished by the single
// value of outcomes. cancel is called when the user presses ctrl+c.
func NewProgressModel(
	root string,
	bridge *EventBridge,
	outcomes <-chan scanner.Outcome,
	cancel context.CancelFunc,
) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	st := newStyles(lipgloss.DefaultRenderer())
	s.Style = st.spinner

	return ProgressModel{
		root:     root,
		spinner:  s,
		styles:   st,
		bridge:   bridge,
		outcomes: outcomes,
		cancel:   cancel,
		now:      time.Now,
		started:  time.Now(),
	}
}

// Init starts the spinner and both listeners.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.ListenCmd(), waitForOutcome(m.outcomes))
}

// Update handles scan events, completion, ctrl+c and spinner ticks.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ScanEventMsg:
		m.apply(msg.Event)

		return m, m.bridge.ListenCmd()

	case scanDoneMsg:
		outcome := msg.outcome
		m.outcome = &outcome

		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == KeyCtrlC && !m.cancelling {
			m.cancelling = true
			m.cancel()
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *ProgressModel) apply(event scanner.Event) {
	switch e := event.(type) {
	case scanner.ScanStarted:
		m.root = e.Root
	case scanner.DirectoryListed:
		m.dirs++
		m.lastPath = e.Path
	case scanner.EntryClassified:
		m.entries++
		m.lastPath = e.Path
	case scanner.ProblemAbsorbed:
		m.problems++
	case scanner.ScanComplete:
		m.entries = e.Count
		m.problems = e.Problems
	}
}

// View renders the spinner line; nothing once the scan is done.
func (m ProgressModel) View() string {
	if m.outcome != nil {
		return ""
	}

	var b strings.Builder

	verb := "Scanning"
	if m.cancelling {
		verb = "Cancelling"
	}

	fmt.Fprintf(&b, "%s %s %s  %s entries in %s directories",
		m.spinner.View(),
		verb,
		m.styles.title.Render(m.root),
		humanize.Comma(int64(m.entries)),
		humanize.Comma(int64(m.dirs)),
	)

	if m.problems > 0 {
		b.WriteString(m.styles.warning.Render(fmt.Sprintf("  %d problems", m.problems)))
	}

	b.WriteString(m.styles.dim.Render(fmt.Sprintf("  (%s)", m.now().Sub(m.started).Round(time.Second))))

	if m.lastPath != "" {
		b.WriteString("\n  " + m.styles.dim.Render(truncatePath(m.lastPath, MaxPathWidth)))
	}

	return b.String() + "\n"
}

// Outcome returns the scan outcome once it has arrived.
func (m ProgressModel) Outcome() (scanner.Outcome, bool) {
	if m.outcome == nil {
		return scanner.Outcome{}, false
	}

	return *m.outcome, true
}

// RunProgress shows progress on out until the scan delivers its outcome.
// parent bounds the display itself and must not be the scan's context, or
// ctrl+c would tear the display down before the partial outcome arrives.
func RunProgress(
	parent context.Context,
	root string,
	bridge *EventBridge,
	outcomes <-chan scanner.Outcome,
	cancel context.CancelFunc,
	out io.Writer,
) (scanner.Outcome, error) {
	model := NewProgressModel(root, bridge, outcomes, cancel)

	final, err := tea.NewProgram(model, tea.WithContext(parent), tea.WithOutput(out)).Run()
	if err != nil {
		return scanner.Outcome{}, fmt.Errorf("progress display failed: %w", err)
	}

	progress, _ := final.(ProgressModel)

	outcome, ok := progress.Outcome()
	if !ok {
		return scanner.Outcome{}, fmt.Errorf("progress display ended before the scan: %w", context.Canceled)
	}

	return outcome, nil
}
