package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

// reportsModel charts logged hour slots per day and task.
type reportsModel struct {
	svc    *tracker.Service
	width  int
	height int

	mode      reportMode
	summaries []store.DailySummary
	offset    int // weeks or 7-day blocks offset from today (0 = current)

	chart barchart.Model
}

func newReportsModel(d Deps) reportsModel {
	return reportsModel{
		svc:   d.Service,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []store.DailySummary
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		summaries, err := r.svc.DailySummary(context.Background(), from, to)
		if err != nil {
			return errStatus("Load report", err)
		}
		return reportsDataMsg{summaries: summaries}
	}
}

// dateRange returns [from, to) of the shown days.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	today := period.DayStart(r.svc.Now())

	switch r.mode {
	case reportWeekly:
		start := period.WeekStart(today).AddDate(0, 0, -7*r.offset)
		return start, start.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*r.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func taskColor(id int64) lipgloss.Color {
	return lipgloss.Color(categoryColors[int(id)%len(categoryColors)])
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	from, to := r.dateRange()
	r.chart.PushAll(summaryBars(r.summaries, from, to))
	r.chart.Draw()
}

// summaryBars stacks each task's logged slots on the bar of its day.
func summaryBars(summaries []store.DailySummary, from, to time.Time) []barchart.BarData {
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := period.FormatDate(d)

		var values []barchart.BarValue
		for _, s := range summaries {
			if s.Date == dateStr {
				values = append(values, barchart.BarValue{
					Name:  s.TaskName,
					Value: float64(s.Slots),
					Style: lipgloss.NewStyle().Foreground(taskColor(s.TaskID)),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}
	return bars
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Last 7 days")
	weeklyTab := inactiveTabStyle.Render("Week")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Last 7 days")
	} else {
		weeklyTab = activeTabStyle.Render("Week")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s – %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  m: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  hour slots logged per day"), r.chart.View(), "",
			r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No entries for these days")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-24s %10s %6s", "Date", "Task", "Total", "Slots")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 56))))

	for _, s := range r.summaries {
		dot := lipgloss.NewStyle().Foreground(taskColor(s.TaskID)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-22s %10s %6d",
			s.Date, dot, truncate(s.TaskName, 22), formatNumber(s.Total), s.Slots,
		))
	}

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	seen := make(map[int64]bool)
	var items []string
	for _, s := range r.summaries {
		if seen[s.TaskID] {
			continue
		}
		seen[s.TaskID] = true
		dot := lipgloss.NewStyle().Foreground(taskColor(s.TaskID)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.TaskName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
