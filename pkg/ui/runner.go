package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaspreet-dot-casa/wkprov/pkg/provision"
)

// maxLogLines is how many recent log lines the display keeps visible.
const maxLogLines = 6

type progressMsg provision.ProgressEvent

type doneMsg struct {
	result *provision.Result
	err    error
}

// runnerModel renders provisioning progress as a stage line, a progress
// bar, and a short tail of recent activity.
type runnerModel struct {
	bar     progress.Model
	events  chan provision.ProgressEvent
	current provision.ProgressEvent
	logs    []string
	percent float64
	result  *provision.Result
	err     error
	cancel  context.CancelFunc
}

func newRunnerModel(events chan provision.ProgressEvent, cancel context.CancelFunc) runnerModel {
	return runnerModel{
		bar:    progress.New(progress.WithDefaultGradient()),
		events: events,
		cancel: cancel,
	}
}

// waitForEvent reads the next progress event off the channel.
func waitForEvent(events chan provision.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return progressMsg(e)
	}
}

func (m runnerModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m runnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, nil
		}
		return m, nil

	case progressMsg:
		m.current = provision.ProgressEvent(msg)
		if m.current.Percent >= 0 {
			m.percent = float64(m.current.Percent) / 100
		}
		line := m.current.Message
		if m.current.Detail != "" {
			line += " " + SubtitleStyle.Render(m.current.Detail)
		}
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, waitForEvent(m.events)

	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil
	}

	return m, nil
}

func (m runnerModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Provisioning wkhtmltopdf"))
	b.WriteString("\n")

	stage := m.current.Stage.DisplayName()
	if stage == "" {
		stage = "Starting"
	}
	b.WriteString(InfoStyle.Render(stage))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.percent))
	b.WriteString("\n\n")

	for _, line := range m.logs {
		b.WriteString("  " + line + "\n")
	}

	return b.String()
}

// sendEvent returns a callback that forwards events to the display. The
// send gives up once the context is cancelled so the provisioning goroutine
// cannot block on a display that has already exited.
func sendEvent(ctx context.Context, events chan<- provision.ProgressEvent) provision.ProgressCallback {
	return func(e provision.ProgressEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
}

// RunProvision executes the provisioner behind a progress display.
// Ctrl+C cancels the run through the context.
func RunProvision(ctx context.Context, p *provision.Provisioner, opts provision.Options) (*provision.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan provision.ProgressEvent, 16)
	prog := tea.NewProgram(newRunnerModel(events, cancel))

	go func() {
		result, err := p.Run(ctx, opts, sendEvent(ctx, events))
		prog.Send(doneMsg{result: result, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	m := final.(runnerModel)
	return m.result, m.err
}
