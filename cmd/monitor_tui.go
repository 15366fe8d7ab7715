// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	frameListWidth = 36
	logLines       = 5
)

type monitorTickMsg time.Time

type frameMsg irlib.Frame

type sourceClosedMsg struct{}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// frameItem is one capture in the history list
type frameItem struct {
	seq   int
	frame irlib.Frame
}

func (i frameItem) Title() string {
	return fmt.Sprintf("#%d %s", i.seq, irlib.FormatResultShort(i.frame.Result))
}

func (i frameItem) Description() string {
	ts := i.frame.Result.Timestamp.Format("15:04:05.000")
	if i.frame.Err != nil {
		return ts + " " + frameError(i.frame.Err)
	}
	return ts
}

func (i frameItem) FilterValue() string { return i.Title() }

type monitorModel struct {
	info  string
	stats *irlib.Statistics

	frameList list.Model
	detail    viewport.Model
	seq       int
	maxFrames int

	eventLog      []logEntry
	maxLogEntries int

	sourceClosed bool
	quitting     bool
	width        int
	height       int
}

func initialMonitorModel(info string) monitorModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	frameList := list.New([]list.Item{}, delegate, frameListWidth, 10)
	frameList.Title = "Transmissions"
	frameList.SetShowStatusBar(false)
	frameList.SetShowHelp(false)
	frameList.SetFilteringEnabled(false)

	detail := viewport.New(40, 10)
	detail.SetContent("(waiting for a transmission)")

	return monitorModel{
		info:          info,
		stats:         irlib.NewStatistics(),
		frameList:     frameList,
		detail:        detail,
		maxFrames:     200,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k", "down", "j", "home", "end":
			var cmd tea.Cmd
			m.frameList, cmd = m.frameList.Update(msg)
			m.showSelected()
			return m, cmd

		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case monitorTickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case frameMsg:
		m.addFrame(irlib.Frame(msg))

	case sourceClosedMsg:
		m.sourceClosed = true
		m.addLogEntry("Source closed", true)
	}

	return m, nil
}

// addFrame records a capture and puts it at the top of the history
func (m *monitorModel) addFrame(f irlib.Frame) {
	m.stats.Update(f.Result, f.Err)
	m.seq++

	following := m.frameList.Index() == 0
	m.frameList.InsertItem(0, frameItem{seq: m.seq, frame: f})
	if n := len(m.frameList.Items()); n > m.maxFrames {
		m.frameList.RemoveItem(n - 1)
	}
	if following {
		m.frameList.Select(0)
	} else {
		// keep the same capture selected
		m.frameList.Select(m.frameList.Index() + 1)
	}
	m.showSelected()

	if f.Err != nil {
		m.addLogEntry(fmt.Sprintf("#%d %s", m.seq, frameError(f.Err)), true)
	} else if showAll {
		m.addLogEntry(fmt.Sprintf("#%d %s", m.seq, irlib.FormatResultShort(f.Result)), false)
	}
}

func (m *monitorModel) showSelected() {
	item, ok := m.frameList.SelectedItem().(frameItem)
	if !ok {
		return
	}
	content := irlib.FormatResult(item.frame.Result)
	if item.frame.Err != nil {
		content = "Error: " + item.frame.Err.Error() + "\n\n" + content
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

func (m *monitorModel) resize() {
	// header, stats box and event log
	bodyHeight := m.height - (logLines + 14)
	if bodyHeight < 6 {
		bodyHeight = 6
	}
	m.frameList.SetSize(frameListWidth, bodyHeight)

	detailWidth := m.width - frameListWidth - 6
	if detailWidth < 20 {
		detailWidth = 20
	}
	m.detail.Width = detailWidth
	m.detail.Height = bodyHeight
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("IRSCOPE - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | ↑/↓ select | PgUp/PgDn scroll | 'q' quit", m.info)))
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	failed := st.Overflows + st.Unmatched
	var decodedPercent, errorPercent float64
	if st.TotalFrames > 0 {
		decodedPercent = float64(st.DecodedFrames) * 100.0 / float64(st.TotalFrames)
		errorPercent = float64(failed) * 100.0 / float64(st.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		statsLabelStyle.Render("Decoded:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.DecodedFrames, decodedPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", failed, errorPercent)),
	))

	perProtocol := []string{}
	for _, id := range []irlib.ProtocolID{irlib.ProtocolNEC, irlib.ProtocolLightStrike, irlib.ProtocolSony} {
		perProtocol = append(perProtocol, fmt.Sprintf("%s %s",
			statsLabelStyle.Render(id.String()+":"), statsValueStyle.Render(fmt.Sprintf("%d", st.ByProtocol[id]))))
	}
	perProtocol = append(perProtocol, fmt.Sprintf("%s %s",
		statsLabelStyle.Render("Repeats:"), statsValueStyle.Render(fmt.Sprintf("%d", st.RepeatFrames))))
	statsContent.WriteString(strings.Join(perProtocol, "   "))
	statsContent.WriteString("\n")

	if failed > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Overflows:"), warningStyle.Render(fmt.Sprintf("%d", st.Overflows)),
			statsLabelStyle.Render("Unmatched:"), errorStyle.Render(fmt.Sprintf("%d", st.Unmatched)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.2f frames/s", st.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if st.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.2f err/s", st.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.2f err/s", st.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n")

	// Frame history and the selected frame's dump
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.frameList.View(),
		boxStyle.Render(m.detail.View()),
	))
	s.WriteString("\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logContent := strings.Builder{}
	startIdx := max(len(m.eventLog)-logLines, 0)
	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(strings.TrimRight(logContent.String(), "\n")))

	return s.String()
}
