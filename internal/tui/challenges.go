package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

type challengesModel struct {
	svc    *tracker.Service
	width  int
	height int

	results []tracker.ChallengeResult
	cursor  int

	formActive bool
	form       *huh.Form
	formValue  *string
}

func newChallengesModel(d Deps) challengesModel {
	v := ""
	return challengesModel{svc: d.Service, formValue: &v}
}

func (c *challengesModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type challengesDataMsg struct {
	results []tracker.ChallengeResult
}

func (c challengesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		list, err := c.svc.ListChallenges(ctx, "")
		if err != nil {
			return errStatus("Load challenges", err)
		}
		results := make([]tracker.ChallengeResult, 0, len(list))
		for _, ch := range list {
			res, err := c.svc.ChallengeProgress(ctx, ch.ID)
			if err != nil {
				return errStatus("Evaluate "+ch.Name, err)
			}
			results = append(results, res)
		}
		return challengesDataMsg{results: results}
	}
}

func (c challengesModel) update(msg tea.Msg) (challengesModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case challengesDataMsg:
		c.results = msg.results
		if c.cursor >= len(c.results) {
			c.cursor = max(0, len(c.results)-1)
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.Down):
			if c.cursor < len(c.results)-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.Log):
			if len(c.results) == 0 {
				return c, nil
			}
			if c.results[c.cursor].Challenge.Type == habit.ChallengeDailyStreak {
				return c, c.logToday(tracker.ChallengeDayInput{Completed: true})
			}
			return c.showValueForm()
		case key.Matches(msg, keys.Fail):
			return c, c.setStatus(habit.StatusFailed)
		case key.Matches(msg, keys.Abandon):
			return c, c.setStatus(habit.StatusAbandoned)
		}
	}
	return c, nil
}

func (c challengesModel) logToday(in tracker.ChallengeDayInput) tea.Cmd {
	if c.cursor >= len(c.results) {
		return nil
	}
	return tea.Sequence(c.logCmd(in), c.refresh())
}

func (c challengesModel) logCmd(in tracker.ChallengeDayInput) tea.Cmd {
	ch := c.results[c.cursor].Challenge
	return func() tea.Msg {
		res, err := c.svc.EvaluateChallengeDay(context.Background(), ch.ID, c.svc.Now(), in)
		if err != nil {
			return errStatus("Log "+ch.Name, err)
		}
		text := fmt.Sprintf("%s: %.0f%%", ch.Name, res.Totals.Progress)
		if res.Challenge.Status == habit.StatusCompleted && ch.Status != habit.StatusCompleted {
			text = ch.Name + ": challenge completed!"
		}
		return statusMsg{text: text}
	}
}

func (c challengesModel) setStatus(to habit.ChallengeStatus) tea.Cmd {
	if c.cursor >= len(c.results) {
		return nil
	}
	return tea.Sequence(c.statusCmd(to), c.refresh())
}

func (c challengesModel) statusCmd(to habit.ChallengeStatus) tea.Cmd {
	ch := c.results[c.cursor].Challenge
	return func() tea.Msg {
		if _, err := c.svc.SetChallengeStatus(context.Background(), ch.ID, to); err != nil {
			return errStatus(ch.Name, err)
		}
		return statusMsg{text: fmt.Sprintf("%s: %s", ch.Name, to)}
	}
}

func (c challengesModel) showValueForm() (challengesModel, tea.Cmd) {
	ch := c.results[c.cursor].Challenge
	*c.formValue = ""
	title := "Count today"
	if ch.Type == habit.ChallengeAccumulation {
		title = "Amount today"
	}
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Description(ch.Unit).Value(c.formValue).
				Validate(func(s string) error {
					_, err := challengeInput(ch.Type, s)
					return err
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	c.formActive = true
	return c, c.form.Init()
}

// challengeInput reads a typed count or amount for a challenge of type t.
func challengeInput(t habit.ChallengeType, s string) (tracker.ChallengeDayInput, error) {
	s = strings.TrimSpace(s)
	if t == habit.ChallengeCountBased {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return tracker.ChallengeDayInput{}, fmt.Errorf("%q is not a whole number", s)
		}
		return tracker.ChallengeDayInput{Count: n}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return tracker.ChallengeDayInput{}, fmt.Errorf("%q is not a positive number", s)
	}
	return tracker.ChallengeDayInput{Value: v}, nil
}

func (c challengesModel) updateForm(msg tea.Msg) (challengesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		if c.cursor >= len(c.results) {
			return c, nil
		}
		in, err := challengeInput(c.results[c.cursor].Challenge.Type, *c.formValue)
		if err != nil {
			return c, func() tea.Msg { return errStatus("Log", err) }
		}
		return c, c.logToday(in)
	}
	return c, cmd
}

func progressBar(pct float64, width int) string {
	filled := int(math.Round(math.Min(pct, 100) / 100 * float64(width)))
	filled = max(0, min(width, filled))
	return successStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func challengeStatusStyle(s habit.ChallengeStatus) lipgloss.Style {
	switch s {
	case habit.StatusCompleted:
		return successStyle
	case habit.StatusFailed:
		return errorStyle
	case habit.StatusAbandoned:
		return mutedStyle
	default:
		return highlightStyle
	}
}

func (c challengesModel) view() string {
	w := c.width - 4
	title := titleStyle.Render("Challenges")

	if c.formActive && c.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View()))
	}

	if len(c.results) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No challenges."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	for i, res := range c.results {
		ch := res.Challenge
		cursor, render := cursorPrefix(i == c.cursor)
		status := challengeStatusStyle(ch.Status).Render(string(ch.Status))
		if res.Expired && ch.Status == habit.StatusActive {
			status += warningStyle.Render(" (ended)")
		}
		rows = append(rows, render(fmt.Sprintf("%s%-28s", cursor, truncate(ch.Name, 28)))+" "+status)
		rows = append(rows, fmt.Sprintf("    %s %5.1f%%  %s  streak %d (best %d)",
			progressBar(res.Totals.Progress, 20), res.Totals.Progress,
			mutedStyle.Render(period.FormatDate(ch.StartDate)+" → "+period.FormatDate(ch.EndDate)),
			res.Totals.CurrentStreak, res.Totals.LongestStreak))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: log today  f: fail  x: abandon"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
