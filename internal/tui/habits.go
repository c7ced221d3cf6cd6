package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

type habitsModel struct {
	svc    *tracker.Service
	width  int
	height int

	habits  []store.Habit
	results map[int64]habit.PeriodResult
	cursor  int

	formActive bool
	form       *huh.Form
	formValue  *string
}

func newHabitsModel(d Deps) habitsModel {
	v := ""
	return habitsModel{svc: d.Service, formValue: &v}
}

func (m *habitsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type habitsDataMsg struct {
	habits  []store.Habit
	results map[int64]habit.PeriodResult
}

func (m habitsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		habits, err := m.svc.ListHabits(ctx, false)
		if err != nil {
			return errStatus("Load habits", err)
		}
		results := make(map[int64]habit.PeriodResult, len(habits))
		for _, h := range habits {
			res, err := m.svc.EvaluateHabitPeriod(ctx, h.ID, m.svc.Now())
			if err != nil {
				return errStatus("Evaluate "+h.Name, err)
			}
			results[h.ID] = res
		}
		return habitsDataMsg{habits: habits, results: results}
	}
}

func (m habitsModel) update(msg tea.Msg) (habitsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case habitsDataMsg:
		m.habits = msg.habits
		m.results = msg.results
		if m.cursor >= len(m.habits) {
			m.cursor = max(0, len(m.habits)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.habits)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Log):
			if len(m.habits) == 0 {
				return m, nil
			}
			h := m.habits[m.cursor]
			if needsValue(h) {
				return m.showValueForm(h)
			}
			return m, m.logToday(h, nil)
		}
	}
	return m, nil
}

// needsValue reports whether logging the habit asks for a measured value.
func needsValue(h store.Habit) bool {
	switch h.Mode {
	case habit.ModeOccurrenceWithValue, habit.ModeAggregate:
		return true
	case habit.ModeDailyStreak:
		return h.TargetValue != nil
	}
	return false
}

func (m habitsModel) logToday(h store.Habit, value *float64) tea.Cmd {
	return tea.Sequence(m.logCmd(h, value), m.refresh())
}

// logCmd records today for h: a day entry for daily streaks, the next session
// otherwise.
func (m habitsModel) logCmd(h store.Habit, value *float64) tea.Cmd {
	next := m.results[h.ID].CompletedCount + 1
	return func() tea.Msg {
		ctx := context.Background()
		now := m.svc.Now()
		if !h.Mode.UsesSessions() {
			if _, err := m.svc.LogHabitDay(ctx, h.ID, now, true, value, ""); err != nil {
				return errStatus("Log "+h.Name, err)
			}
			return statusMsg{text: h.Name + ": logged today"}
		}
		res, err := m.svc.LogHabitSession(ctx, h.ID, now, next, true, value)
		if err != nil {
			return errStatus("Log "+h.Name, err)
		}
		return statusMsg{text: fmt.Sprintf("%s: session %d logged (%s)", h.Name, next, progressText(h, res))}
	}
}

func (m habitsModel) showValueForm(h store.Habit) (habitsModel, tea.Cmd) {
	*m.formValue = ""
	unit := h.SessionTargetUnit
	if unit == "" {
		unit = "value"
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(h.Name).Description(unit).Value(m.formValue).
				Validate(func(s string) error {
					_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					return err
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m habitsModel) updateForm(msg tea.Msg) (habitsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if m.cursor >= len(m.habits) {
			return m, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(*m.formValue), 64)
		if err != nil {
			return m, func() tea.Msg { return errStatus("Log", err) }
		}
		return m, m.logToday(m.habits[m.cursor], &v)
	}
	return m, cmd
}

func progressText(h store.Habit, res habit.PeriodResult) string {
	if h.Mode == habit.ModeAggregate {
		return fmt.Sprintf("%s / %s", formatNumber(res.AggregateAchieved), formatNumber(res.AggregateTarget))
	}
	if h.Mode == habit.ModeDailyStreak {
		return fmt.Sprintf("%d day streak", h.CurrentStreak)
	}
	return fmt.Sprintf("%d / %d", res.CompletedCount, res.TargetCount)
}

func (m habitsModel) view() string {
	w := m.width - 4
	title := titleStyle.Render("Habits")

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	if len(m.habits) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No active habits."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %-22s %-8s %-8s %-16s", "Habit", "Mode", "Streak", "Best", "This period")))
	for i, h := range m.habits {
		cursor, render := cursorPrefix(i == m.cursor)
		res := m.results[h.ID]
		progress := progressText(h, res)
		if res.IsSuccessful {
			progress = successStyle.Render(progress + " ✓")
		}
		rows = append(rows, render(fmt.Sprintf("%s%-24s %-22s %-8d %-8d ",
			cursor, truncate(h.Name, 24), h.Mode, h.CurrentStreak, h.LongestStreak))+progress)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: log today"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
