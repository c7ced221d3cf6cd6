package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// ToCSV writes daily entries, one row per hourly slot.
func ToCSV(entries []store.EntryDetail, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Task ID", "Task", "Pillar", "Date", "Hour", "Value", "Updated"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.TaskID, 10),
			taskName(e),
			e.PillarName,
			period.FormatDate(e.Date),
			formatHour(e.Hour),
			formatValue(e.Value),
			formatStamp(e.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// BreakdownCSV writes one row per day of a period breakdown followed by a
// total row. The lump period value, when counted, gets its own row.
func BreakdownCSV(b rollup.Breakdown, task string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Task", "View", "Date", "Value"}); err != nil {
		return err
	}
	view := b.View.String()
	for _, d := range b.Days {
		if err := w.Write([]string{task, view, period.FormatDate(d.Date), formatValue(d.Value)}); err != nil {
			return err
		}
	}
	if b.PeriodValue != 0 {
		if err := w.Write([]string{task, view, "period", formatValue(b.PeriodValue)}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{task, view, "total", formatValue(b.Total)}); err != nil {
		return err
	}
	return w.Error()
}

func taskName(e store.EntryDetail) string {
	if e.TaskName == "" {
		return "Unknown"
	}
	return e.TaskName
}

func formatHour(h *int) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("%02d:00", *h)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
