package cli

import (
	"errors"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"gradeflow/internal/engine"
	"gradeflow/internal/models"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// Messages pushed into the UI by the session's poll loop.
type batchProgressMsg models.Progress
type batchCompleteMsg struct{}
type batchFailedMsg struct{ err error }

// batchProgressModel is the bubbletea model for an asynchronous batch.
type batchProgressModel struct {
	sess     *engine.Session
	total    int
	current  *models.Progress
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

func newBatchProgressModel(sess *engine.Session, total int) batchProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return batchProgressModel{
		sess:     sess,
		total:    total,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial commands. checkJob covers the window before the
// observer was installed: a job that went terminal in that gap would
// otherwise never reach the UI.
func (m batchProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.progress.Init(),
		m.checkJob,
	)
}

func (m batchProgressModel) checkJob() tea.Msg {
	job := m.sess.Job()
	if job == nil {
		return nil
	}
	switch job.Status {
	case models.JobComplete:
		return batchCompleteMsg{}
	case models.JobError:
		return batchFailedMsg{err: errors.New(job.Err)}
	}
	return nil
}

// Update handles messages and returns the updated model.
func (m batchProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case batchProgressMsg:
		p := models.Progress(msg)
		m.current = &p
		return m, nil

	case batchCompleteMsg:
		m.done = true
		return m, tea.Quit

	case batchFailedMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m batchProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m batchProgressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	// Before the first progress tick the batch size comes from the
	// submitted input count.
	state := "processing"
	completed, total := 0, m.total
	if m.current == nil {
		state = "submitted"
	} else {
		completed, total = m.current.Completed, m.current.Total
	}

	var pct float64
	if total > 0 {
		pct = float64(completed) / float64(total)
	}

	status := m.theme.statusStyle().Render("[" + state + "]")
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d items", completed, total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue later")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m batchProgressModel) finalView() string {
	if m.quitting {
		msg := "\nGeneration continues server-side.\nRun any gradeflow command later to pick up the results.\n"
		return m.theme.hintStyle().Render(msg)
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Generation failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render("✓ Batch complete\n")
}

// runBatchProgress displays poll progress for the session's current job.
// The session's poll loop pushes events in; the UI never fetches on its
// own. Returns nil on completion or Ctrl+C, the job error on failure.
func runBatchProgress(sess *engine.Session, total int) error {
	p := tea.NewProgram(newBatchProgressModel(sess, total))

	sess.SetNotify(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventProgress:
			if ev.Progress != nil {
				p.Send(batchProgressMsg(*ev.Progress))
			}
		case engine.EventComplete:
			p.Send(batchCompleteMsg{})
		case engine.EventFailed:
			p.Send(batchFailedMsg{err: ev.Err})
		}
	})
	defer sess.SetNotify(nil)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(batchProgressModel); ok {
		// Ctrl+C detaches: stop local polling, the job keeps running
		// server-side and is picked up on the next session load.
		if m.quitting {
			sess.CancelPolling()
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
