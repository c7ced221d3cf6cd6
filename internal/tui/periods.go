package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/pending"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

type statusOp int

const (
	opComplete statusOp = iota
	opNA
	opRestore
)

// periodModel is one period tab. The four tabs share it, parameterised by kind.
type periodModel struct {
	svc    *tracker.Service
	store  *store.Store
	buffer *pending.Buffer
	kind   period.Kind
	width  int
	height int

	start  time.Time
	rows   []tracker.TabRow
	cursor int
	edited map[int64]bool

	formActive bool
	form       *huh.Form
	formTask   store.Task

	// Form field pointers (survive value copies)
	formValue *string
	formDay   *string
	formHour  *string

	chart barchart.Model
}

func newPeriodModel(d Deps, k period.Kind) periodModel {
	v, day, h := "", "", ""
	return periodModel{
		svc:       d.Service,
		store:     d.Store,
		buffer:    d.Buffer,
		kind:      k,
		start:     k.Start(d.Service.Now()),
		edited:    make(map[int64]bool),
		formValue: &v,
		formDay:   &day,
		formHour:  &h,
		chart:     barchart.New(60, 10),
	}
}

func (p *periodModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.buildChart()
}

type periodDataMsg struct {
	kind  period.Kind
	start time.Time
	rows  []tracker.TabRow
	err   error
}

func (p periodModel) refresh() tea.Cmd {
	k, start := p.kind, p.start
	return func() tea.Msg {
		rows, err := p.svc.TabView(context.Background(), k, start)
		if err == nil && p.store.HideCompleted() {
			rows = openRows(rows)
		}
		return periodDataMsg{kind: k, start: start, rows: rows, err: err}
	}
}

// openRows drops rows completed or marked NA in the period.
func openRows(rows []tracker.TabRow) []tracker.TabRow {
	var out []tracker.TabRow
	for _, r := range rows {
		if r.Status.Status() == store.StatusActive {
			out = append(out, r)
		}
	}
	return out
}

func (p periodModel) update(msg tea.Msg) (periodModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case periodDataMsg:
		if msg.kind != p.kind || !msg.start.Equal(p.start) {
			return p, nil
		}
		if msg.err != nil {
			return p, func() tea.Msg { return errStatus("Load "+p.kind.String(), msg.err) }
		}
		p.rows = msg.rows
		if p.cursor >= len(p.rows) {
			p.cursor = max(0, len(p.rows)-1)
		}
		if p.buffer.Len() == 0 {
			clear(p.edited)
		}
		p.buildChart()
		return p, nil

	case tea.KeyMsg:
		return p.updateKeys(msg)
	}
	return p, nil
}

func (p periodModel) updateKeys(msg tea.KeyMsg) (periodModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
			p.buildChart()
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.rows)-1 {
			p.cursor++
			p.buildChart()
		}
	case key.Matches(msg, keys.Left):
		p.start = p.kind.Shift(p.start, -1)
		return p, p.refresh()
	case key.Matches(msg, keys.Right):
		p.start = p.kind.Shift(p.start, 1)
		return p, p.refresh()
	case key.Matches(msg, keys.Complete):
		return p, p.setStatus(opComplete)
	case key.Matches(msg, keys.NA):
		return p, p.setStatus(opNA)
	case key.Matches(msg, keys.Restore):
		return p, p.setStatus(opRestore)
	case key.Matches(msg, keys.Value):
		if len(p.rows) > 0 {
			return p.showValueForm()
		}
	}
	return p, nil
}

func (p periodModel) current() bool {
	return p.kind.Start(p.svc.Now()).Equal(p.start)
}

func (p periodModel) setStatus(op statusOp) tea.Cmd {
	if len(p.rows) == 0 {
		return nil
	}
	return tea.Sequence(p.statusCmd(op), p.refresh())
}

// statusCmd applies op to the selected row. A home task in its current period
// goes through the home operation, which also updates the task itself; any
// other row only changes this tab's status.
func (p periodModel) statusCmd(op statusOp) tea.Cmd {
	row := p.rows[p.cursor]
	k, start, home := p.kind, p.start, row.Home && p.current()
	return func() tea.Msg {
		ctx := context.Background()
		id := row.Task.ID
		yes := true
		var err error
		switch {
		case home && op == opComplete:
			_, err = p.svc.CompleteHomeTask(ctx, id)
		case home && op == opNA:
			_, err = p.svc.MarkHomeNA(ctx, id)
		case home:
			_, err = p.svc.RestoreHomeTask(ctx, id)
		case op == opComplete:
			_, err = p.svc.SetPeriodStatus(ctx, id, start, k, store.StatusPatch{IsCompleted: &yes})
		case op == opNA:
			_, err = p.svc.SetPeriodStatus(ctx, id, start, k, store.StatusPatch{IsNA: &yes})
		default:
			_, err = p.svc.RestorePeriod(ctx, id, start, k)
		}
		if err != nil {
			return errStatus(row.Task.Name, err)
		}
		return statusMsg{text: fmt.Sprintf("%s: %s", row.Task.Name, opLabel(op))}
	}
}

func opLabel(op statusOp) string {
	switch op {
	case opComplete:
		return "completed"
	case opNA:
		return "marked not applicable"
	default:
		return "restored"
	}
}

// entryKey returns the cell a value typed for row lands in. A home task in a
// coarser tab takes a period-level value; every other value is a daily slot.
func entryKey(row tracker.TabRow, k period.Kind, start time.Time, day, hour string) (pending.Key, error) {
	if row.Home && k != period.Daily {
		return pending.NewKey(row.Task.ID, k, start, nil), nil
	}
	d := k.Start(start)
	if k != period.Daily {
		var err error
		if d, err = period.ParseDate(strings.TrimSpace(day)); err != nil {
			return pending.Key{}, err
		}
		if !k.Contains(start, d) {
			return pending.Key{}, fmt.Errorf("%s is outside this %s period", period.FormatDate(d), k)
		}
	}
	h, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || h < 0 || h > 23 {
		return pending.Key{}, fmt.Errorf("hour must be between 0 and 23")
	}
	return pending.NewKey(row.Task.ID, period.Daily, d, &h), nil
}

func (p periodModel) showValueForm() (periodModel, tea.Cmd) {
	row := p.rows[p.cursor]
	now := p.svc.Now()
	p.formTask = row.Task
	*p.formValue = ""
	*p.formHour = strconv.Itoa(now.Hour())
	*p.formDay = period.FormatDate(p.start)
	if p.kind.Contains(p.start, now) {
		*p.formDay = period.FormatDate(now)
	}

	task := row.Task
	value := huh.NewInput().
		Title("Value").
		Description(valueHint(task)).
		Value(p.formValue).
		Validate(func(s string) error {
			_, err := parseAmount(task, s)
			return err
		})

	fields := []huh.Field{value}
	if !(row.Home && p.kind != period.Daily) {
		if p.kind != period.Daily {
			fields = append(fields, huh.NewInput().Title("Day (YYYY-MM-DD)").Value(p.formDay))
		}
		fields = append(fields, huh.NewInput().Title("Hour (0-23)").Value(p.formHour))
	}

	p.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func valueHint(t store.Task) string {
	switch t.Type {
	case store.TypeTime:
		return "minutes, or a duration such as 1h30m"
	case store.TypeBoolean:
		return "yes or no"
	default:
		if t.Unit != "" {
			return t.Unit
		}
		return "count"
	}
}

func (p periodModel) updateForm(msg tea.Msg) (periodModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		if p.cursor >= len(p.rows) {
			return p, nil
		}
		k, err := entryKey(p.rows[p.cursor], p.kind, p.start, *p.formDay, *p.formHour)
		if err != nil {
			return p, func() tea.Msg { return errStatus("Entry", err) }
		}
		v, err := parseAmount(p.formTask, *p.formValue)
		if err != nil {
			return p, func() tea.Msg { return errStatus("Entry", err) }
		}
		p.buffer.Put(k, v)
		p.edited[p.formTask.ID] = true
		return p, func() tea.Msg { return editQueuedMsg{} }
	}

	return p, cmd
}

func (p periodModel) selected() (tracker.TabRow, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return tracker.TabRow{}, false
	}
	return p.rows[p.cursor], true
}

func (p *periodModel) buildChart() {
	chartWidth := max(20, p.width-8)
	chartHeight := 8
	if p.height > 30 {
		chartHeight = 12
	}
	p.chart = barchart.New(chartWidth, chartHeight)
	row, ok := p.selected()
	if !ok {
		return
	}
	p.chart.PushAll(breakdownBars(row.Breakdown))
	p.chart.Draw()
}

var barStyle = lipgloss.NewStyle().Foreground(colorPrimary)

// breakdownBars turns a breakdown into chart bars: hours for a day, days for a
// week or month, months for a year.
func breakdownBars(b rollup.Breakdown) []barchart.BarData {
	bar := func(label string, v float64) barchart.BarData {
		return barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: label, Value: v, Style: barStyle}},
		}
	}

	var bars []barchart.BarData
	switch b.View {
	case period.Daily:
		if len(b.Days) == 0 {
			return nil
		}
		for h, v := range b.Days[0].Hours {
			bars = append(bars, bar(fmt.Sprintf("%02d", h), v))
		}
	case period.Yearly:
		for m, v := range b.ByMonth() {
			bars = append(bars, bar(time.Month(m+1).String()[:3], v))
		}
	default:
		for _, d := range b.Days {
			label := d.Date.Format("02")
			if b.View == period.Weekly {
				label = d.Date.Format("Mon")
			}
			bars = append(bars, bar(label, d.Value))
		}
	}
	return bars
}

func periodLabel(k period.Kind, start time.Time) string {
	switch k {
	case period.Daily:
		return start.Format("Mon 02 Jan 2006")
	case period.Weekly:
		end := k.End(start).AddDate(0, 0, -1)
		return fmt.Sprintf("%s – %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	case period.Monthly:
		return start.Format("January 2006")
	default:
		return start.Format("2006")
	}
}

func (p periodModel) view() string {
	w := p.width - 4
	title := titleStyle.Render(p.kind.Title())
	label := mutedStyle.Render(periodLabel(p.kind, p.start))
	if p.current() {
		label += highlightStyle.Render("  (current)")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", label)

	if p.formActive && p.form != nil {
		sub := titleStyle.Render("Enter value: " + p.formTask.Name)
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", sub, "", p.form.View()))
	}

	if len(p.rows) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No tasks in this period. Track one from the Tasks tab."),
		))
	}

	var rows []string
	rows = append(rows, header, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-26s %-10s %-10s %-9s", "Task", "Actual", "Expected", "State")))

	for i, r := range p.rows {
		cursor, render := cursorPrefix(i == p.cursor)
		name := r.Task.Name
		if !r.Home {
			name += " ↗"
		}
		if p.edited[r.Task.ID] {
			name += " *"
		}
		line := render(fmt.Sprintf("%s%-26s %-10s %-10s ",
			cursor, truncate(name, 26), formatAmount(r.Task, r.Judgment.Actual), formatAmount(r.Task, r.Judgment.Expected)))
		line += stateStyle(r.State).Render(fmt.Sprintf("%-9s", stateLabel(r.State)))
		if cells := dayCells(r.DayStates); cells != "" {
			line += " " + cells
		}
		rows = append(rows, line)
	}

	if row, ok := p.selected(); ok {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %s · %s pacing · total %s",
			row.Task.Name, row.Judgment.Rule, formatAmount(row.Task, row.Breakdown.Total))))
		rows = append(rows, p.chart.View())
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: period  c: complete  a: n/a  r: restore  e: enter value"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// dayCells renders one coloured square per day for week and month tabs.
func dayCells(states []rollup.State) string {
	if len(states) < 2 || len(states) > 31 {
		return ""
	}
	var b strings.Builder
	for _, s := range states {
		b.WriteString(stateStyle(s).Render("■"))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
