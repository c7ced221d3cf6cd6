package api

import (
	"net/http"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func (s *Server) listPillars(w http.ResponseWriter, r *http.Request) {
	pillars, err := s.svc.ListPillars(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]pillarView, 0, len(pillars))
	for _, p := range pillars {
		out = append(out, pillarView{ID: p.ID, Name: p.Name, Description: p.Description, Color: p.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	pillarID, err := queryInt64(r, "pillar_id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if pillarID == nil {
		s.writeErr(w, r, badRequest("pillar_id is required", nil))
		return
	}
	cats, err := s.svc.ListCategories(r.Context(), *pillarID, queryBool(r, "archived"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{ID: c.ID, PillarID: c.PillarID, Name: c.Name, Color: c.Color, Archived: c.Archived})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PillarID int64  `json:"pillar_id"`
		Name     string `json:"name"`
		Color    string `json:"color"`
	}
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	c, err := s.svc.CreateCategory(r.Context(), body.PillarID, body.Name, body.Color)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{ID: c.ID, PillarID: c.PillarID, Name: c.Name, Color: c.Color, Archived: c.Archived})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	var f store.TaskFilter
	var err error
	if f.PillarID, err = queryInt64(r, "pillar_id"); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if f.CategoryID, err = queryInt64(r, "category_id"); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("frequency"); raw != "" {
		freq := store.Frequency(raw)
		if !freq.Valid() {
			s.writeErr(w, r, badRequest("invalid frequency", nil))
			return
		}
		f.Frequency = &freq
	}
	f.IncludeInactive = queryBool(r, "include_inactive")
	f.IncludeDone = queryBool(r, "include_done")

	tasks, err := s.svc.ListTasks(r.Context(), f)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body taskRequest
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	t, err := s.svc.CreateTask(r.Context(), body.input())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskView(*t))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	t, err := s.svc.GetTask(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(*t))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var body taskRequest
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	t, err := s.svc.UpdateTask(r.Context(), id, body.input())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(*t))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.svc.DeleteTask(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	s.homeOp(w, r, s.svc.CompleteHomeTask)
}

func (s *Server) markTaskNA(w http.ResponseWriter, r *http.Request) {
	s.homeOp(w, r, s.svc.MarkHomeNA)
}

func (s *Server) restoreTask(w http.ResponseWriter, r *http.Request) {
	s.homeOp(w, r, s.svc.RestoreHomeTask)
}
