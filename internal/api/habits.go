package api

import (
	"net/http"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.Context(), queryBool(r, "include_inactive"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]habitView, 0, len(habits))
	for _, h := range habits {
		out = append(out, newHabitView(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var body habitRequest
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	h, err := s.svc.CreateHabit(r.Context(), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newHabitView(*h))
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	h, err := s.svc.GetHabit(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHabitView(*h))
}

func (s *Server) putHabitEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var body struct {
		Date  string   `json:"date"`
		Done  bool     `json:"done"`
		Value *float64 `json:"value"`
		Note  string   `json:"note"`
	}
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	d, err := parseDate(body.Date, "date")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	h, err := s.svc.LogHabitDay(r.Context(), id, d, body.Done, body.Value, body.Note)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHabitView(*h))
}

func (s *Server) putHabitSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var body struct {
		PeriodStart   string   `json:"period_start"`
		SessionNumber int      `json:"session_number"`
		IsCompleted   bool     `json:"is_completed"`
		Value         *float64 `json:"value"`
	}
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	ps, err := parseDate(body.PeriodStart, "period_start")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.LogHabitSession(r.Context(), id, ps, body.SessionNumber, body.IsCompleted, body.Value)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodResultView(res))
}

func (s *Server) habitPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	start, err := parseDate(r.PathValue("start"), "start")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.EvaluateHabitPeriod(r.Context(), id, start)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodResultView(res))
}

func (s *Server) listChallenges(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.ListChallenges(r.Context(), habit.ChallengeStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]challengeView, 0, len(cs))
	for _, c := range cs {
		out = append(out, newChallengeView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var body challengeRequest
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	c, err := s.svc.CreateChallenge(r.Context(), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newChallengeView(*c))
}

func (s *Server) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.ChallengeProgress(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeResultView(res))
}

func (s *Server) putChallengeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var body struct {
		Date      string  `json:"date"`
		Completed bool    `json:"is_completed"`
		Count     int     `json:"count_value"`
		Value     float64 `json:"numeric_value"`
		Note      string  `json:"note"`
	}
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	d, err := parseDate(body.Date, "date")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.EvaluateChallengeDay(r.Context(), id, d, tracker.ChallengeDayInput{
		Completed: body.Completed,
		Count:     body.Count,
		Value:     body.Value,
		Note:      body.Note,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeResultView(res))
}

func (s *Server) setChallengeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	c, err := s.svc.SetChallengeStatus(r.Context(), id, habit.ChallengeStatus(body.Status))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeView(*c))
}
