package http

import (
	"net/http"

	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
	"lifedash/internal/services"
	"lifedash/internal/workout"
)

type startSessionRequest struct {
	Focus     string   `json:"focus"`
	BodyParts []string `json:"body_parts"`
}

type openSectionRequest struct {
	Name string `json:"name"`
}

type addEntryRequest struct {
	Exercise string `json:"exercise"`
	workout.Entry
}

type sessionView struct {
	ID      string           `json:"id"`
	Session *workout.Session `json:"session,omitempty"`
}

// finishFailure carries the finished session back when it could not be
// stored, so the client can resubmit it to POST /api/workouts.
type finishFailure struct {
	ErrorBody
	Data workout.FinishedSession `json:"data"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	focus := sanitizeInput(req.Focus)
	if focus == "" {
		focus = workout.Focus(req.BodyParts...)
	}

	rec := workout.NewRecorder(workout.WithClock(s.now))
	if err := rec.Start(focus); err != nil {
		writeError(w, r, err)
		return
	}
	id := s.recorders.create(rec)
	snap, _ := rec.Snapshot()

	s.log.InfoContext(r.Context(), "Workout session started",
		applog.FieldSessionID, id,
		"focus", focus)
	writeData(w, http.StatusCreated, sessionView{ID: id, Session: &snap}, nil)
}

// withRecorder runs fn on the session's recorder and answers with the
// resulting snapshot.
func (s *Server) withRecorder(w http.ResponseWriter, r *http.Request, fn func(*workout.Recorder) error) {
	id := urlID(r)
	var view sessionView
	err := s.recorders.with(id, func(rec *workout.Recorder) error {
		if err := fn(rec); err != nil {
			return err
		}
		view = sessionView{ID: id}
		if snap, ok := rec.Snapshot(); ok {
			view.Session = &snap
		}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, view, nil)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withRecorder(w, r, func(*workout.Recorder) error { return nil })
}

func (s *Server) handleOpenSection(w http.ResponseWriter, r *http.Request) {
	var req openSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withRecorder(w, r, func(rec *workout.Recorder) error {
		return rec.OpenSection(sanitizeInput(req.Name))
	})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withRecorder(w, r, func(rec *workout.Recorder) error {
		return rec.AddEntry(sanitizeInput(req.Exercise), req.Entry)
	})
}

func (s *Server) handleCloseSection(w http.ResponseWriter, r *http.Request) {
	s.withRecorder(w, r, func(rec *workout.Recorder) error {
		_, err := rec.CloseSection()
		return err
	})
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	if err := s.recorders.with(id, func(*workout.Recorder) error { return nil }); err != nil {
		writeError(w, r, err)
		return
	}
	s.recorders.remove(id)
	s.log.InfoContext(r.Context(), "Workout session abandoned", applog.FieldSessionID, id)
	w.WriteHeader(http.StatusNoContent)
}

// handleFinishSession stores the finished workout and forgets the session.
// A session with an open section stays as it was.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	var stored services.Stored[workout.FinishedSession]
	var saveErr error
	err := s.recorders.with(id, func(rec *workout.Recorder) error {
		var err error
		stored, err = s.svc.Workouts.Finish(r.Context(), rec)
		if err != nil && !rec.Active() && !stored.Record.StartedAt.IsZero() {
			saveErr = err
			return nil
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recorders.remove(id)

	if saveErr != nil {
		s.log.ErrorContext(r.Context(), "Finished workout not stored",
			applog.FieldSessionID, id,
			applog.FieldError, saveErr)
		writeJSON(w, StatusFor(saveErr), finishFailure{
			ErrorBody: ErrorBody{Error: saveErr.Error()},
			Data:      stored.Record,
		})
		return
	}

	s.log.InfoContext(r.Context(), "Workout session finished",
		applog.FieldSessionID, id,
		applog.FieldDocumentID, stored.ID,
		"total_minutes", stored.Record.TotalDurationMinutes,
		"hardest_section", stored.Record.HardestSectionName)
	writeData(w, http.StatusCreated, stored, nil)
}

func (s *Server) handleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	var fs workout.FinishedSession
	if err := decodeJSON(w, r, &fs); err != nil {
		writeError(w, r, err)
		return
	}
	fs.HardestSectionName = workout.HardestSection(fs.Sections)
	id, err := s.svc.Workouts.Save(r.Context(), fs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentWorkout, docstore.Workouts, id,
		"hardest_section", fs.HardestSectionName)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Workouts.List(r.Context())
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.Workouts.Get(r.Context(), urlID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, item, nil)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Workouts.Delete(r.Context(), urlID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type catalogView struct {
	Sections  []string            `json:"sections"`
	BodyParts []string            `json:"body_parts"`
	Exercises map[string][]string `json:"exercises"`
}

// handleCatalog lists sections and suggested exercises, or a single
// section's exercises with ?section=.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if section := sanitizeInput(r.URL.Query().Get("section")); section != "" {
		exercises, err := workout.Catalog(section)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, exercises, nil)
		return
	}

	view := catalogView{
		Sections:  workout.Sections(),
		BodyParts: workout.BodyParts(),
		Exercises: map[string][]string{},
	}
	for _, name := range view.Sections {
		view.Exercises[name], _ = workout.Catalog(name)
	}
	writeData(w, http.StatusOK, view, nil)
}
