package vocab

import (
	"fmt"
	"math/rand/v2"

	"lifedash/internal/core"
)

const (
	MinQuizWords = 5
	MaxQuizCards = 15
)

var (
	ErrNotEnoughWords = fmt.Errorf("%w: a quiz needs at least %d words", core.ErrValidation, MinQuizWords)
	ErrQuizFinished   = fmt.Errorf("%w: quiz already finished", core.ErrInvalidState)
	ErrNotRevealed    = fmt.Errorf("%w: reveal the card before answering", core.ErrInvalidState)
)

// Card is a stored word together with its document id.
type Card struct {
	ID   string    `json:"id"`
	Word core.Word `json:"word"`
}

// Question is what the player sees of the current card.
type Question struct {
	Number   int    `json:"number"`
	Total    int    `json:"total"`
	Prompt   string `json:"prompt"`
	Revealed bool   `json:"revealed"`
	Meaning  string `json:"meaning,omitempty"`
	Sentence string `json:"sentence,omitempty"`
}

// Quiz walks a random sample of cards. It is not safe for concurrent use.
type Quiz struct {
	cards    []Card
	idx      int
	score    int
	revealed bool
}

// NewQuiz samples min(MaxQuizCards, len(cards)) cards without repetition.
func NewQuiz(cards []Card, rng *rand.Rand) (*Quiz, error) {
	if len(cards) < MinQuizWords {
		return nil, ErrNotEnoughWords
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	n := min(MaxQuizCards, len(cards))
	sample := make([]Card, 0, n)
	for _, i := range rng.Perm(len(cards))[:n] {
		sample = append(sample, cards[i])
	}
	return &Quiz{cards: sample}, nil
}

func (q *Quiz) Done() bool { return q.idx >= len(q.cards) }

func (q *Quiz) Score() int { return q.score }

func (q *Quiz) Len() int { return len(q.cards) }

// Current describes the card being asked, or false once the quiz is done.
func (q *Quiz) Current() (Question, bool) {
	if q.Done() {
		return Question{}, false
	}
	c := q.cards[q.idx]
	out := Question{
		Number:   q.idx + 1,
		Total:    len(q.cards),
		Prompt:   c.Word.Prompt(),
		Revealed: q.revealed,
	}
	if q.revealed {
		out.Meaning = c.Word.TR
		out.Sentence = c.Word.Sentence
	}
	return out, true
}

func (q *Quiz) Reveal() (Question, error) {
	if q.Done() {
		return Question{}, ErrQuizFinished
	}
	q.revealed = true
	cur, _ := q.Current()
	return cur, nil
}

// Answer records whether the player knew the revealed card and advances.
// It returns the answered card.
func (q *Quiz) Answer(knew bool) (Card, error) {
	if q.Done() {
		return Card{}, ErrQuizFinished
	}
	if !q.revealed {
		return Card{}, ErrNotRevealed
	}
	c := q.cards[q.idx]
	if knew {
		q.score++
	}
	q.idx++
	q.revealed = false
	return c, nil
}
