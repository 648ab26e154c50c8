package http

import (
	"fmt"
	"net/http"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
	"lifedash/internal/vocab"
)

func (s *Server) handleCreateWord(w http.ResponseWriter, r *http.Request) {
	var word core.Word
	if err := decodeJSON(w, r, &word); err != nil {
		writeError(w, r, err)
		return
	}
	word.EN = sanitizeInput(word.EN)
	word.DE = sanitizeInput(word.DE)
	word.TR = sanitizeInput(word.TR)
	word.Sentence = sanitizeInput(word.Sentence)
	word.SentenceTR = sanitizeInput(word.SentenceTR)
	word.Type = sanitizeInput(word.Type)
	word.ImageURL = sanitizeInput(word.ImageURL)

	id, err := s.svc.Vocabulary.AddWord(r.Context(), word)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentVocab, docstore.Words, id)
}

// handleListWords lists every word, or those matching ?q= in any language.
func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Vocabulary.ListWords(r.Context(), sanitizeInput(r.URL.Query().Get("q")))
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleDeleteWord(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Vocabulary.DeleteWord(r.Context(), urlID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportWords takes a multipart upload with a CSV or XLSX "file" and
// the list's "lang" (en or de).
func (s *Server) handleImportWords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		writeError(w, r, fmt.Errorf("%w: expected a multipart upload: %v", core.ErrValidation, err))
		return
	}
	lang, err := vocab.ParseLanguage(r.FormValue("lang"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file: %v", core.ErrValidation, err))
		return
	}
	defer file.Close()

	rows, err := vocab.ReadFile(hdr.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Vocabulary.Import(r.Context(), rows, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Words imported",
		applog.FieldOperation, applog.OpImport,
		"file", hdr.Filename,
		"lang", lang,
		"added", res.Added,
		"rejected", res.Rejected)
	writeData(w, http.StatusOK, res, nil)
}

type sheetImport struct {
	Range string `json:"range"`
	Lang  string `json:"lang"`
}

// handleImportSheet imports words from a spreadsheet range such as
// "German!A:F".
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	if s.svc.Sheets == nil {
		writeError(w, r, fmt.Errorf("%w: spreadsheet import is not configured", core.ErrExternalUnavailable))
		return
	}
	var req sheetImport
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Range = sanitizeInput(req.Range)
	if req.Range == "" {
		writeError(w, r, fmt.Errorf("%w: range is required", core.ErrValidation))
		return
	}
	lang, err := vocab.ParseLanguage(req.Lang)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.svc.Sheets.ReadTable(r.Context(), req.Range)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: read %s: %v", core.ErrExternalUnavailable, req.Range, err))
		return
	}
	res, err := s.svc.Vocabulary.Import(r.Context(), rows, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Words imported",
		applog.FieldOperation, applog.OpImport,
		"range", req.Range,
		"lang", lang,
		"added", res.Added,
		"rejected", res.Rejected)
	writeData(w, http.StatusOK, res, nil)
}

type quizView struct {
	ID       string          `json:"id"`
	Question *vocab.Question `json:"question,omitempty"`
	Answered *vocab.Card     `json:"answered,omitempty"`
	Score    int             `json:"score"`
	Total    int             `json:"total"`
	Done     bool            `json:"done"`
}

func newQuizView(id string, q *vocab.Quiz) quizView {
	v := quizView{ID: id, Score: q.Score(), Total: q.Len(), Done: q.Done()}
	if cur, ok := q.Current(); ok {
		v.Question = &cur
	}
	return v
}

type answerRequest struct {
	Knew *bool `json:"knew"`
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	q, notices, err := s.svc.Vocabulary.StartQuiz(r.Context(), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := s.quizzes.create(q)

	s.log.InfoContext(r.Context(), "Quiz started", applog.FieldSessionID, id, "cards", q.Len())
	writeData(w, http.StatusCreated, newQuizView(id, q), notices)
}

func (s *Server) handleQuizCurrent(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	var view quizView
	err := s.quizzes.with(id, func(q *vocab.Quiz) error {
		view = newQuizView(id, q)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, view, nil)
}

func (s *Server) handleQuizReveal(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	var view quizView
	err := s.quizzes.with(id, func(q *vocab.Quiz) error {
		if _, err := q.Reveal(); err != nil {
			return err
		}
		view = newQuizView(id, q)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, view, nil)
}

// handleQuizAnswer records {"knew": bool} for the revealed card. The
// session is forgotten once the last card is answered.
func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Knew == nil {
		writeError(w, r, fmt.Errorf("%w: knew is required", core.ErrValidation))
		return
	}

	id := urlID(r)
	var view quizView
	var notices []core.Notice
	err := s.quizzes.with(id, func(q *vocab.Quiz) error {
		card, n, err := s.svc.Vocabulary.Answer(r.Context(), q, *req.Knew)
		if err != nil {
			return err
		}
		notices = n
		view = newQuizView(id, q)
		view.Answered = &card
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if view.Done {
		s.quizzes.remove(id)
		s.log.InfoContext(r.Context(), "Quiz finished",
			applog.FieldSessionID, id,
			"score", view.Score,
			"total", view.Total)
	}
	writeData(w, http.StatusOK, view, notices)
}

func (s *Server) handleQuizAbandon(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	if err := s.quizzes.with(id, func(*vocab.Quiz) error { return nil }); err != nil {
		writeError(w, r, err)
		return
	}
	s.quizzes.remove(id)
	w.WriteHeader(http.StatusNoContent)
}
