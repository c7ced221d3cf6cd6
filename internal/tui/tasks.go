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

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

var categoryColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

type taskForm int

const (
	formTask taskForm = iota
	formCategory
	formTrack
)

// tasksModel browses pillars and their tasks.
type tasksModel struct {
	svc    *tracker.Service
	width  int
	height int

	pillars      []store.Pillar
	categories   []store.Category
	tasks        []store.Task
	cursor       int
	taskCursor   int
	viewingTasks bool // true = viewing tasks of selected pillar

	formActive bool
	form       *huh.Form
	formType   taskForm

	// Form field pointers (survive value copies)
	formName     *string
	formFreq     *store.Frequency
	formKind     *store.TaskType
	formAmount   *string
	formUnit     *string
	formCategory *int64
	formColor    *string
	formTrackTo  *period.Kind
}

func newTasksModel(d Deps) tasksModel {
	name, amount, unit, color := "", "", "", categoryColors[0]
	freq, typ := store.FreqDaily, store.TypeTime
	var cat int64
	kind := period.Weekly
	return tasksModel{
		svc:          d.Service,
		formName:     &name,
		formFreq:     &freq,
		formKind:     &typ,
		formAmount:   &amount,
		formUnit:     &unit,
		formCategory: &cat,
		formColor:    &color,
		formTrackTo:  &kind,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type pillarsDataMsg struct {
	pillars []store.Pillar
}

type pillarTasksMsg struct {
	pillarID   int64
	categories []store.Category
	tasks      []store.Task
}

func (t tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		pillars, err := t.svc.ListPillars(context.Background())
		if err != nil {
			return errStatus("Load pillars", err)
		}
		return pillarsDataMsg{pillars: pillars}
	}
}

func (t tasksModel) refreshTasks() tea.Cmd {
	if t.cursor >= len(t.pillars) {
		return nil
	}
	pid := t.pillars[t.cursor].ID
	return func() tea.Msg {
		ctx := context.Background()
		cats, err := t.svc.ListCategories(ctx, pid, false)
		if err != nil {
			return errStatus("Load categories", err)
		}
		tasks, err := t.svc.ListTasks(ctx, store.TaskFilter{PillarID: &pid, IncludeDone: true})
		if err != nil {
			return errStatus("Load tasks", err)
		}
		return pillarTasksMsg{pillarID: pid, categories: cats, tasks: tasks}
	}
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case pillarsDataMsg:
		t.pillars = msg.pillars
		if t.cursor >= len(t.pillars) {
			t.cursor = max(0, len(t.pillars)-1)
		}
		if t.viewingTasks {
			return t, t.refreshTasks()
		}
		return t, nil

	case pillarTasksMsg:
		t.categories = msg.categories
		t.tasks = msg.tasks
		if t.taskCursor >= len(t.tasks) {
			t.taskCursor = max(0, len(t.tasks)-1)
		}
		return t, nil

	case tea.KeyMsg:
		if t.viewingTasks {
			return t.updateTaskView(msg)
		}
		return t.updatePillarList(msg)
	}
	return t, nil
}

func (t tasksModel) updatePillarList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(t.pillars)-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(t.pillars) > 0 {
			t.viewingTasks = true
			t.taskCursor = 0
			return t, t.refreshTasks()
		}
	}
	return t, nil
}

func (t tasksModel) updateTaskView(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		t.viewingTasks = false
		return t, nil
	case key.Matches(msg, keys.Up):
		if t.taskCursor > 0 {
			t.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if t.taskCursor < len(t.tasks)-1 {
			t.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return t.showTaskForm()
	case key.Matches(msg, keys.Mode):
		return t.showCategoryForm()
	case key.Matches(msg, keys.Track):
		if len(t.tasks) > 0 {
			return t.showTrackForm()
		}
	case key.Matches(msg, keys.Restore):
		if len(t.tasks) > 0 {
			return t, t.restore(t.tasks[t.taskCursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(t.tasks) > 0 {
			return t, t.delete(t.tasks[t.taskCursor])
		}
	}
	return t, nil
}

func (t tasksModel) restore(task store.Task) tea.Cmd {
	return tea.Sequence(func() tea.Msg {
		if _, err := t.svc.RestoreHomeTask(context.Background(), task.ID); err != nil {
			return errStatus("Restore "+task.Name, err)
		}
		return statusMsg{text: task.Name + ": restored"}
	}, t.refreshTasks())
}

func (t tasksModel) delete(task store.Task) tea.Cmd {
	return tea.Sequence(func() tea.Msg {
		if err := t.svc.DeleteTask(context.Background(), task.ID); err != nil {
			return errStatus("Delete "+task.Name, err)
		}
		return statusMsg{text: task.Name + ": deleted"}
	}, t.refreshTasks())
}

func (t tasksModel) showTaskForm() (tasksModel, tea.Cmd) {
	*t.formName = ""
	*t.formFreq = store.FreqDaily
	*t.formKind = store.TypeTime
	*t.formAmount = ""
	*t.formUnit = ""
	*t.formCategory = 0
	t.formType = formTask

	freqOptions := make([]huh.Option[store.Frequency], len(store.Frequencies))
	for i, f := range store.Frequencies {
		freqOptions[i] = huh.NewOption(string(f), f)
	}
	catOptions := []huh.Option[int64]{huh.NewOption("(none)", int64(0))}
	for _, c := range t.categories {
		catOptions = append(catOptions, huh.NewOption(c.Name, c.ID))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(t.formName),
			huh.NewSelect[store.Frequency]().Title("Follow-up frequency").Options(freqOptions...).Value(t.formFreq),
			huh.NewSelect[int64]().Title("Category").Options(catOptions...).Value(t.formCategory),
		),
		huh.NewGroup(
			huh.NewSelect[store.TaskType]().Title("Measured as").
				Options(
					huh.NewOption("Time (minutes)", store.TypeTime),
					huh.NewOption("Count", store.TypeCount),
					huh.NewOption("Yes / no", store.TypeBoolean),
				).Value(t.formKind),
			huh.NewInput().Title("Target per period").Description("minutes for time tasks, ignored for yes/no").Value(t.formAmount),
			huh.NewInput().Title("Unit").Description("count tasks only, e.g. pages").Value(t.formUnit),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showCategoryForm() (tasksModel, tea.Cmd) {
	*t.formName = ""
	*t.formColor = categoryColors[0]
	t.formType = formCategory

	colorOptions := make([]huh.Option[string], len(categoryColors))
	for i, c := range categoryColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(t.formName),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(t.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showTrackForm() (tasksModel, tea.Cmd) {
	*t.formTrackTo = period.Weekly
	t.formType = formTrack

	kindOptions := make([]huh.Option[period.Kind], len(period.Kinds))
	for i, k := range period.Kinds {
		kindOptions[i] = huh.NewOption(k.Title(), k)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[period.Kind]().Title("Track in the current period of").Options(kindOptions...).Value(t.formTrackTo),
		),
	).WithShowHelp(true)

	t.formActive = true
	return t, t.form.Init()
}

// taskInput builds the create request from the form fields.
func (t tasksModel) taskInput(pillarID int64) (store.TaskInput, error) {
	in := store.TaskInput{
		Name:      *t.formName,
		PillarID:  pillarID,
		Frequency: *t.formFreq,
		Type:      *t.formKind,
		Unit:      strings.TrimSpace(*t.formUnit),
	}
	if *t.formCategory != 0 {
		id := *t.formCategory
		in.CategoryID = &id
	}
	amount := strings.TrimSpace(*t.formAmount)
	if amount == "" || in.Type == store.TypeBoolean {
		return in, nil
	}
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil || v < 0 {
		return in, fmt.Errorf("target %q is not a positive number", amount)
	}
	if in.Type == store.TypeTime {
		in.AllocatedMinutes = int(v)
	} else {
		in.TargetValue = v
	}
	return in, nil
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		if t.cursor >= len(t.pillars) {
			return t, nil
		}
		return t, tea.Sequence(t.submit(), t.refreshTasks())
	}

	return t, cmd
}

func (t tasksModel) submit() tea.Cmd {
	ctx := context.Background()
	pillar := t.pillars[t.cursor]
	switch t.formType {
	case formCategory:
		name, color := *t.formName, *t.formColor
		return func() tea.Msg {
			if _, err := t.svc.CreateCategory(ctx, pillar.ID, name, color); err != nil {
				return errStatus("New category", err)
			}
			return statusMsg{text: "Category created: " + name}
		}
	case formTrack:
		if t.taskCursor >= len(t.tasks) {
			return nil
		}
		task, k := t.tasks[t.taskCursor], *t.formTrackTo
		return func() tea.Msg {
			if _, err := t.svc.TrackInPeriod(ctx, task.ID, t.svc.Now(), k); err != nil {
				return errStatus("Track "+task.Name, err)
			}
			return statusMsg{text: fmt.Sprintf("%s: tracked in %s", task.Name, k)}
		}
	default:
		in, err := t.taskInput(pillar.ID)
		return func() tea.Msg {
			if err != nil {
				return errStatus("New task", err)
			}
			task, err := t.svc.CreateTask(ctx, in)
			if err != nil {
				return errStatus("New task", err)
			}
			return statusMsg{text: "Task created: " + task.Name}
		}
	}
}

func (t tasksModel) view() string {
	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Task")
		switch t.formType {
		case formCategory:
			title = titleStyle.Render("New Category")
		case formTrack:
			title = titleStyle.Render("Track Task")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View())
		return panelStyle.Width(t.width - 4).Render(content)
	}

	if t.viewingTasks {
		return t.renderTaskView()
	}
	return t.renderPillarList()
}

func (t tasksModel) renderPillarList() string {
	w := t.width - 4
	title := titleStyle.Render("Pillars")

	if len(t.pillars) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No pillars."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, p := range t.pillars {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		cursor, render := cursorPrefix(i == t.cursor)
		rows = append(rows, render(fmt.Sprintf("%s%s %-16s", cursor, colorDot, p.Name))+" "+mutedStyle.Render(p.Description))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t tasksModel) categoryName(id *int64) string {
	if id == nil {
		return ""
	}
	for _, c := range t.categories {
		if c.ID == *id {
			return c.Name
		}
	}
	return ""
}

func (t tasksModel) renderTaskView() string {
	w := t.width - 4
	p := t.pillars[t.cursor]
	colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s: Tasks", colorDot, p.Name))

	if len(t.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-26s %-10s %-10s %-14s %s", "Name", "Frequency", "Target", "Category", "State")))

	for i, task := range t.tasks {
		cursor, render := cursorPrefix(i == t.taskCursor)
		state := mutedStyle.Render("open")
		switch {
		case task.IsCompleted:
			state = successStyle.Render("completed")
		case task.NAMarkedAt != nil:
			state = mutedStyle.Render("n/a")
		case !task.IsActive:
			state = warningStyle.Render("inactive")
		}
		rows = append(rows, render(fmt.Sprintf("%s%-26s %-10s %-10s %-14s ",
			cursor, truncate(task.Name, 26), task.Frequency, formatAmount(task, task.Target()), t.categoryName(task.CategoryID)))+state)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new task  m: new category  t: track  r: restore  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
