package downloader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shotgrab/shotgrab/internal/models"
)

var (
	progressTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#D97706")).
				Bold(true)

	progressCountStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#95E1D3"))

	progressFailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B"))
)

type resultMsg struct {
	result models.DownloadResult
}

type finishMsg struct{}

// progressModel renders the live download progress bar. It only ever runs
// on the collector goroutine's tea program, so counts need no locking.
type progressModel struct {
	bar   progress.Model
	total int

	completed  int
	downloaded int
	existing   int
	failed     int
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.completed++
		switch msg.result.Status {
		case models.StatusDownloaded:
			m.downloaded++
		case models.StatusExists:
			m.existing++
		case models.StatusFailed:
			m.failed++
		}
		return m, m.bar.SetPercent(float64(m.completed) / float64(m.total))

	case finishMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 10
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(progressTitleStyle.Render("Downloading clips"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")
	b.WriteString(progressCountStyle.Render(
		fmt.Sprintf("%d/%d done (%d new, %d cached)", m.completed, m.total, m.downloaded, m.existing)))
	if m.failed > 0 {
		b.WriteString(progressFailStyle.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	b.WriteString("\n")
	return b.String()
}

// progressDisplay owns the tea program running the progress model.
type progressDisplay struct {
	program *tea.Program
	done    chan struct{}
}

func startProgressDisplay(total int) *progressDisplay {
	model := &progressModel{
		bar:   progress.New(progress.WithDefaultGradient()),
		total: total,
	}
	d := &progressDisplay{
		program: tea.NewProgram(model),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		_, _ = d.program.Run()
	}()
	return d
}

func (d *progressDisplay) advance(result models.DownloadResult) {
	d.program.Send(resultMsg{result: result})
}

func (d *progressDisplay) finish() {
	d.program.Send(finishMsg{})
	<-d.done
}
