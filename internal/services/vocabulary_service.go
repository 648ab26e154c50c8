package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	"lifedash/internal/vocab"
)

type VocabularyService struct {
	documents
	now   func() time.Time
	words *keyedMutex
}

func NewVocabularyService(store docstore.Store, publisher Publisher) *VocabularyService {
	return &VocabularyService{documents: documents{store: store, publisher: publisher}, now: time.Now, words: newKeyedMutex()}
}

// AddWord stores a new card with a zero learned count.
func (s *VocabularyService) AddWord(ctx context.Context, w core.Word) (string, error) {
	w = trimWord(w)
	if err := w.Validate(); err != nil {
		return "", err
	}
	w.LearnedCount = 0
	w.CreatedAt = s.now().UTC()
	return s.create(ctx, docstore.Words, w)
}

func trimWord(w core.Word) core.Word {
	w.EN = strings.TrimSpace(w.EN)
	w.DE = strings.TrimSpace(w.DE)
	w.TR = strings.TrimSpace(w.TR)
	w.Sentence = strings.TrimSpace(w.Sentence)
	w.SentenceTR = strings.TrimSpace(w.SentenceTR)
	w.Type = strings.TrimSpace(w.Type)
	w.ImageURL = strings.TrimSpace(w.ImageURL)
	return w
}

// ListWords returns every card, or only those where query appears in any
// field, ignoring case.
func (s *VocabularyService) ListWords(ctx context.Context, query string) ([]Stored[core.Word], []core.Notice) {
	words, notices := list[core.Word](ctx, s.store, docstore.Words)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return words, notices
	}
	out := words[:0]
	for _, w := range words {
		if matches(w.Record, query) {
			out = append(out, w)
		}
	}
	return out, notices
}

func matches(w core.Word, lowerQuery string) bool {
	for _, f := range []string{w.EN, w.DE, w.TR, w.Sentence, w.SentenceTR, w.Type, w.ImageURL} {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

func (s *VocabularyService) DeleteWord(ctx context.Context, id string) error {
	return s.remove(ctx, docstore.Words, id)
}

type ImportResult struct {
	Added    int `json:"added"`
	Rejected int `json:"rejected"`
}

// Import parses a word table and stores every acceptable row. A store
// failure stops the import and returns what was added so far.
func (s *VocabularyService) Import(ctx context.Context, rows [][]string, lang vocab.Language) (ImportResult, error) {
	words, rejected, err := vocab.ParseRows(rows, lang)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Rejected: rejected}
	for _, w := range words {
		if _, err := s.AddWord(ctx, w); err != nil {
			if errors.Is(err, core.ErrValidation) {
				res.Rejected++
				continue
			}
			return res, err
		}
		res.Added++
	}
	return res, nil
}

// StartQuiz samples stored cards into a new quiz. rng may be nil.
func (s *VocabularyService) StartQuiz(ctx context.Context, rng *rand.Rand) (*vocab.Quiz, []core.Notice, error) {
	words, notices, err := load[core.Word](ctx, s.store, docstore.Words)
	if err != nil {
		return nil, nil, err
	}
	cards := make([]vocab.Card, len(words))
	for i, w := range words {
		cards[i] = vocab.Card{ID: w.ID, Word: w.Record}
	}
	q, err := vocab.NewQuiz(cards, rng)
	return q, notices, err
}

// Answer records the answer on the quiz and, when the player knew the card,
// bumps its learned count. Failing to store the count only yields a notice.
func (s *VocabularyService) Answer(ctx context.Context, q *vocab.Quiz, knew bool) (vocab.Card, []core.Notice, error) {
	card, err := q.Answer(knew)
	if err != nil || !knew {
		return card, nil, err
	}
	unlock := s.words.lock(card.ID)
	defer unlock()
	current, err := get[core.Word](ctx, s.store, docstore.Words, card.ID)
	if err == nil {
		err = s.update(ctx, docstore.Words, card.ID, docstore.Fields{"learned_count": current.Record.LearnedCount + 1})
	}
	if err != nil {
		return card, []core.Notice{core.NewNotice(docstore.Words, err)}, nil
	}
	return card, nil, nil
}
