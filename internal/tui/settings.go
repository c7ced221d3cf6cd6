package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	flushInterval *string
	hideCompleted *bool
	lastTab       *string
}

func newSettingsModel(d Deps) settingsModel {
	fi, lt := "", ""
	hide := false
	return settingsModel{
		store:         d.Store,
		flushInterval: &fi,
		hideCompleted: &hide,
		lastTab:       &lt,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return errStatus("Load settings", err)
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.flushInterval = s.getVal(store.SettingFlushInterval, "2s")
	*s.hideCompleted = s.store.HideCompleted()
	*s.lastTab = s.getVal(store.SettingLastTab, period.Daily.String())

	tabOptions := make([]huh.Option[string], len(period.Kinds))
	for i, k := range period.Kinds {
		tabOptions[i] = huh.NewOption(k.Title(), k.String())
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Flush interval").
				Description("how long edits wait before they are saved, e.g. 2s").
				Value(s.flushInterval).
				Validate(validateInterval),
			huh.NewConfirm().Title("Hide completed and n/a rows in period tabs").Value(s.hideCompleted),
			huh.NewSelect[string]().Title("Open on tab").Options(tabOptions...).Value(s.lastTab),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validateInterval(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg { return errStatus("Save settings", err) }
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := map[string]string{
		store.SettingFlushInterval: *s.flushInterval,
		store.SettingHideCompleted: strconv.FormatBool(*s.hideCompleted),
		store.SettingLastTab:       *s.lastTab,
	}
	for k, v := range values {
		if err := s.store.SetSetting(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

var settingLabels = map[string]string{
	store.SettingFlushInterval: "Flush interval",
	store.SettingHideCompleted: "Hide completed rows",
	store.SettingLastTab:       "Open on tab",
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		name := settingLabels[setting.Key]
		if name == "" {
			name = setting.Key
		}
		label := lipgloss.NewStyle().Width(24).Render(name)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(setting.Value)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings. A new flush interval applies on the next start."))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
