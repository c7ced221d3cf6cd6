package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

func addReport(topLevel *cobra.Command, o *options) {
	var kindFlag, dateFlag string
	var summary bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a period tab with pacing for every task.",
		Example: `
mytimemanager report --kind weekly
mytimemanager report --kind monthly --date 2024-03-01 --summary
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := period.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			e, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			day := e.svc.Now()
			if dateFlag != "" {
				if day, err = period.ParseDate(dateFlag); err != nil {
					return err
				}
			}
			rows, err := e.svc.TabView(cmd.Context(), k, day)
			if err != nil {
				return err
			}
			start := k.Start(day)
			writeTab(cmd.OutOrStdout(), k, start, rows)

			if summary {
				sums, err := e.svc.DailySummary(cmd.Context(), start, k.End(start))
				if err != nil {
					return err
				}
				writeSummary(cmd.OutOrStdout(), sums)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "daily", "Period kind: daily, weekly, monthly or yearly.")
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Any date inside the period, YYYY-MM-DD (default today).")
	cmd.Flags().BoolVar(&summary, "summary", false, "Also print per-day totals.")
	topLevel.AddCommand(cmd)
}

func writeTab(w io.Writer, k period.Kind, start time.Time, rows []tracker.TabRow) {
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s %s .. %s\n\n", bold.Sprint(k.Title()), period.FormatDate(start),
		period.FormatDate(k.End(start).AddDate(0, 0, -1)))
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tasks in this period.")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("TASK"), bold.Sprint("HOME"), bold.Sprint("RULE"),
		bold.Sprint("ACTUAL"), bold.Sprint("EXPECTED"), bold.Sprint("STATE"))
	for _, r := range rows {
		home := ""
		if r.Home {
			home = "*"
		}
		tbl.AddRow(
			r.Task.Name,
			home,
			r.Judgment.Rule.String(),
			amount(r.Task, r.Breakdown.Total),
			amount(r.Task, r.Judgment.Expected),
			paint(r.State),
		)
	}
	tbl.RightAlign(3)
	tbl.RightAlign(4)
	fmt.Fprintln(w, tbl)
}

func writeSummary(w io.Writer, sums []store.DailySummary) {
	fmt.Fprintln(w)
	tbl := uitable.New()
	tbl.Separator = "  "
	bold := color.New(color.Bold)
	tbl.AddRow(bold.Sprint("DATE"), bold.Sprint("TASK"), bold.Sprint("TOTAL"), bold.Sprint("SLOTS"))
	for _, s := range sums {
		tbl.AddRow(s.Date, s.TaskName, strconv.FormatFloat(s.Total, 'f', -1, 64), s.Slots)
	}
	tbl.RightAlign(2)
	tbl.RightAlign(3)
	fmt.Fprintln(w, tbl)
}

// amount renders a value in the task's unit: minutes for time tasks, the
// task unit for counts and done/- for boolean tasks.
func amount(t store.Task, v float64) string {
	switch t.Type {
	case store.TypeTime:
		m := int(v + 0.5)
		if m >= 60 {
			return fmt.Sprintf("%dh%02dm", m/60, m%60)
		}
		return fmt.Sprintf("%dm", m)
	case store.TypeBoolean:
		if v >= 1 {
			return "done"
		}
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v != float64(int64(v)) {
		s = strconv.FormatFloat(v, 'f', 1, 64)
	}
	if t.Unit != "" {
		s += " " + t.Unit
	}
	return s
}

func paint(s rollup.State) string {
	switch s {
	case rollup.StateOnTrack:
		return color.GreenString(s.String())
	case rollup.StateBelow:
		return color.RedString(s.String())
	case rollup.StateCompleted:
		return color.CyanString(s.String())
	case rollup.StateNA:
		return color.YellowString(s.String())
	}
	return s.String()
}
