// Package tui is the terminal interface: one tab per period kind plus task,
// habit, challenge, report and settings views.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/export"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/pending"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

// Deps are the collaborators of the UI. Store is used for settings only.
type Deps struct {
	Service   *tracker.Service
	Store     *store.Store
	Buffer    *pending.Buffer
	ExportDir string
	Log       hclog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	svc       *tracker.Service
	store     *store.Store
	buffer    *pending.Buffer
	exportDir string
	log       hclog.Logger
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	dirty         bool

	periods    [4]periodModel
	tasks      tasksModel
	habits     habitsModel
	challenges challengesModel
	reports    reportsModel
	settings   settingsModel

	help   help.Model
	status statusMsg
}

func NewApp(d Deps) App {
	if d.Log == nil {
		d.Log = hclog.NewNullLogger()
	}
	h := help.New()
	h.ShowAll = false

	a := App{
		svc:        d.Service,
		store:      d.Store,
		buffer:     d.Buffer,
		exportDir:  d.ExportDir,
		log:        d.Log,
		activeView: viewDaily,
		tasks:      newTasksModel(d),
		habits:     newHabitsModel(d),
		challenges: newChallengesModel(d),
		reports:    newReportsModel(d),
		settings:   newSettingsModel(d),
		help:       h,
	}
	for _, k := range period.Kinds {
		a.periods[k] = newPeriodModel(d, k)
	}
	if v, err := d.Store.GetSetting(store.SettingLastTab); err == nil {
		if k, err := period.ParseKind(v); err == nil {
			a.activeView = viewState(k)
		}
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.refreshCurrentView(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		for i := range a.periods {
			a.periods[i].setSize(a.width, contentHeight)
		}
		a.tasks.setSize(a.width, contentHeight)
		a.habits.setSize(a.width, contentHeight)
		a.challenges.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}
		tabs := []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Tab5, keys.Tab6, keys.Tab7, keys.Tab8, keys.Tab9}
		for i, b := range tabs {
			if key.Matches(msg, b) {
				return a.switchTo(viewState(i))
			}
		}

	case tickMsg:
		// The buffer's own loop flushes in the background; once it is empty
		// the view catches up.
		if a.dirty && a.buffer.Len() == 0 {
			a.dirty = false
			return a, tea.Batch(tickCmd(), a.refreshCurrentView())
		}
		return a, tickCmd()

	case statusMsg:
		a.status = msg
		return a, nil

	case editQueuedMsg:
		a.dirty = true
		a.status = statusMsg{text: fmt.Sprintf("%d unsaved edit(s)", a.buffer.Len())}
		return a, nil

	case flushDoneMsg:
		if msg.err != nil {
			a.status = errStatus("Save", msg.err)
			return a, nil
		}
		if msg.n > 0 {
			a.status = statusMsg{text: fmt.Sprintf("Saved %d edit(s)", msg.n)}
		}
		return a, a.refreshCurrentView()

	case exportDoneMsg:
		a.status = statusMsg{text: "Exported to " + msg.path}
		a.exportPicking = false
		return a, nil

	case periodDataMsg:
		var cmd tea.Cmd
		if msg.kind.Valid() {
			a.periods[msg.kind], cmd = a.periods[msg.kind].update(msg)
		}
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// switchTo changes tab, saving buffered edits first.
func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v <= viewYearly {
		k := period.Kind(v)
		if err := a.store.SetSetting(store.SettingLastTab, k.String()); err != nil {
			a.log.Warn("save last tab failed", "error", err)
		}
	}
	if a.buffer.Len() > 0 {
		return a, a.flush()
	}
	return a, a.refreshCurrentView()
}

func (a App) flush() tea.Cmd {
	return func() tea.Msg {
		n, err := a.buffer.Flush(context.Background())
		return flushDoneMsg{n: n, err: err}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDaily, viewWeekly, viewMonthly, viewYearly:
		a.periods[a.activeView], cmd = a.periods[a.activeView].update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewHabits:
		a.habits, cmd = a.habits.update(msg)
	case viewChallenges:
		a.challenges, cmd = a.challenges.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDaily, viewWeekly, viewMonthly, viewYearly:
		return a.periods[a.activeView].formActive
	case viewTasks:
		return a.tasks.formActive
	case viewHabits:
		return a.habits.formActive
	case viewChallenges:
		return a.challenges.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDaily, viewWeekly, viewMonthly, viewYearly:
		return a.periods[a.activeView].refresh()
	case viewTasks:
		return a.tasks.refresh()
	case viewHabits:
		return a.habits.refresh()
	case viewChallenges:
		return a.challenges.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDaily, viewWeekly, viewMonthly, viewYearly:
		content = a.periods[a.activeView].view()
	case viewTasks:
		content = a.tasks.view()
	case viewHabits:
		content = a.habits.view()
	case viewChallenges:
		content = a.challenges.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("mytimemanager")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status.text != "" {
		style := mutedStyle
		if a.status.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status.text)
	}

	pendingInfo := ""
	if n := a.buffer.Len(); n > 0 {
		pendingInfo = warningStyle.Render(fmt.Sprintf(" ● %d pending", n))
	}

	left := footerStyle.Render(helpView)
	right := pendingInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor, render := cursorPrefix(i == a.exportCursor)
		rows = append(rows, render(cursor+strings.ToUpper(f.String())))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.svc.ListEntries(context.Background(), store.EntryFilter{})
		if err != nil {
			return errStatus("Export", err)
		}
		path, err := export.Write(f, entries, a.exportDir, a.svc.Now())
		if err != nil {
			return errStatus("Export "+f.String(), err)
		}
		return exportDoneMsg{path: path}
	}
}
