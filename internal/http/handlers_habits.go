package http

import (
	"fmt"
	"net/http"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
)

type streakView struct {
	Habit  string    `json:"habit"`
	AsOf   core.Date `json:"as_of"`
	Streak int       `json:"streak"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var c core.HabitCheckIn
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.Habit = sanitizeInput(c.Habit)
	c.Note = sanitizeInput(c.Note)
	c.Day = s.dateOrToday(c.Day)

	id, err := s.svc.Habits.CheckIn(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentHabits, docstore.Habits, id, "habit", c.Habit)
}

// handleListCheckIns lists check-ins newest first, for one habit with ?habit=.
func (s *Server) handleListCheckIns(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Habits.ListCheckIns(r.Context(), sanitizeInput(r.URL.Query().Get("habit")))
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	habit := sanitizeInput(r.URL.Query().Get("habit"))
	if habit == "" {
		writeError(w, r, fmt.Errorf("%w: habit is required", core.ErrValidation))
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, notices := s.svc.Habits.Streak(r.Context(), habit, asOf)
	writeData(w, http.StatusOK, streakView{Habit: habit, AsOf: core.DateOf(asOf), Streak: n}, notices)
}

func (s *Server) handleDeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Habits.Delete(r.Context(), urlID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
