package api

import (
	"context"
	"net/http"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

func (s *Server) homeOp(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*store.Task, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	t, err := op(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(*t))
}

// periodTarget is the {kind}/{taskId}/{start} triple shared by period routes.
type periodTarget struct {
	kind   period.Kind
	taskID int64
	start  time.Time
}

func periodArgs(r *http.Request, withTask bool) (periodTarget, error) {
	var pt periodTarget
	var err error
	if pt.kind, err = pathKind(r); err != nil {
		return pt, err
	}
	if withTask {
		if pt.taskID, err = pathID(r, "taskId"); err != nil {
			return pt, err
		}
	}
	if pt.start, err = parseDate(r.PathValue("start"), "start"); err != nil {
		return pt, err
	}
	return pt, nil
}

func (s *Server) tab(w http.ResponseWriter, r *http.Request) {
	pt, err := periodArgs(r, false)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	rows, err := s.svc.TabView(r.Context(), pt.kind, pt.start)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]tabRowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newTabRowView(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":         pt.kind.String(),
		"period_start": date(pt.kind.Start(pt.start)),
		"rows":         out,
	})
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	pt, err := periodArgs(r, true)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	b, err := s.svc.DailyAggregateForPeriod(r.Context(), pt.taskID, pt.start, pt.kind)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBreakdownView(b))
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	s.statusOp(w, r, s.svc.PeriodStatus)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	pt, err := periodArgs(r, true)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var patch store.StatusPatch
	if err := readJSON(r, &patch); err != nil {
		s.writeErr(w, r, err)
		return
	}
	row, err := s.svc.SetPeriodStatus(r.Context(), pt.taskID, pt.start, pt.kind, patch)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusView(row))
}

func (s *Server) restoreStatus(w http.ResponseWriter, r *http.Request) {
	s.statusOp(w, r, s.svc.RestorePeriod)
}

func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	s.statusOp(w, r, s.svc.TrackInPeriod)
}

func (s *Server) statusOp(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, time.Time, period.Kind) (store.StatusRow, error)) {
	pt, err := periodArgs(r, true)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	row, err := op(r.Context(), pt.taskID, pt.start, pt.kind)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusView(row))
}

func (s *Server) putEntry(w http.ResponseWriter, r *http.Request) {
	var body entryRequest
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	in := tracker.EntryInput{TaskID: body.TaskID, Hour: body.Hour, Value: body.Value}
	if body.Kind == "" {
		body.Kind = period.Daily.String()
	}
	k, err := period.ParseKind(body.Kind)
	if err != nil {
		s.writeErr(w, r, badRequest("invalid kind", err))
		return
	}
	in.Kind = k
	if in.Date, err = parseDate(body.Date, "date"); err != nil {
		s.writeErr(w, r, err)
		return
	}
	e, err := s.svc.RecordEntry(r.Context(), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryView(e))
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	var f store.EntryFilter
	var err error
	if f.TaskID, err = queryInt64(r, "task_id"); err != nil {
		s.writeErr(w, r, err)
		return
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		d, err := parseDate(raw, name)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		*dst = &d
	}
	limit, err := queryInt64(r, "limit")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if limit != nil {
		f.Limit = int(*limit)
	}

	rows, err := s.svc.ListEntries(r.Context(), f)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]entryView, 0, len(rows))
	for _, d := range rows {
		v := newEntryView(d.Entry)
		v.TaskName = d.TaskName
		v.PillarName = d.PillarName
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}
