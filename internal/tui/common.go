package tui

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDaily viewState = iota
	viewWeekly
	viewMonthly
	viewYearly
	viewTasks
	viewHabits
	viewChallenges
	viewReports
	viewSettings
)

var viewNames = []string{"Daily", "Weekly", "Monthly", "Yearly", "Tasks", "Habits", "Challenges", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// editQueuedMsg reports a value put into the pending buffer.
type editQueuedMsg struct{}

type flushDoneMsg struct {
	n   int
	err error
}

func errStatus(what string, err error) statusMsg {
	var pe *tracker.PartialError
	if errors.As(err, &pe) {
		return statusMsg{text: fmt.Sprintf("%s: task changed, period status not saved (%v)", what, pe.Err), isError: true}
	}
	return statusMsg{text: fmt.Sprintf("%s: %v", what, err), isError: true}
}

// --- Helpers ---

func formatMinutes(m float64) string {
	total := int(math.Round(m))
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAmount renders v in the task's own unit.
func formatAmount(t store.Task, v float64) string {
	switch t.Type {
	case store.TypeTime:
		return formatMinutes(v)
	case store.TypeBoolean:
		if v > 0 {
			return "done"
		}
		return "-"
	default:
		s := formatNumber(math.Round(v*100) / 100)
		if t.Unit != "" {
			s += " " + t.Unit
		}
		return s
	}
}

// parseAmount reads a value typed for task t. Time tasks take minutes or a
// duration such as "1h30m".
func parseAmount(t store.Task, s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch t.Type {
	case store.TypeBoolean:
		switch s {
		case "1", "y", "yes", "done", "true":
			return 1, nil
		case "", "0", "n", "no", "false":
			return 0, nil
		}
		return 0, fmt.Errorf("%q is not yes or no", s)
	case store.TypeTime:
		if strings.ContainsAny(s, "hm") {
			d, err := time.ParseDuration(s)
			if err != nil {
				return 0, err
			}
			if d < 0 {
				return 0, fmt.Errorf("negative duration %q", s)
			}
			return d.Minutes(), nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %q", s)
	}
	return v, nil
}

func cursorPrefix(selected bool) (string, func(...string) string) {
	if selected {
		return "> ", selectedItemStyle.Render
	}
	return "  ", normalItemStyle.Render
}
