// Package vocab turns spreadsheet rows into vocabulary cards and runs
// flashcard quizzes over stored cards.
package vocab

import (
	"fmt"
	"strings"

	"lifedash/internal/core"
)

// Language is the foreign language of an imported word list.
type Language string

const (
	English Language = "en"
	German  Language = "de"
)

const (
	TypeGeneral = "General"

	wordColumn     = "Word"
	meaning1Column = "Meaning 1"
	meaning2Column = "Meaning 2"
)

var ErrMissingWordColumn = fmt.Errorf("%w: sheet has no %q column", core.ErrValidation, wordColumn)

func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case English:
		return English, nil
	case German:
		return German, nil
	}
	return "", fmt.Errorf("%w: unsupported language %q (want en or de)", core.ErrValidation, s)
}

// header maps trimmed column titles to their index.
type header struct {
	names []string
	index map[string]int
}

func newHeader(row []string) header {
	h := header{names: make([]string, len(row)), index: make(map[string]int, len(row))}
	for i, name := range row {
		name = strings.TrimSpace(name)
		h.names[i] = name
		if _, dup := h.index[name]; !dup {
			h.index[name] = i
		}
	}
	return h
}

// find returns the first column whose lowercased title satisfies match.
func (h header) find(match func(lower string) bool) int {
	for i, name := range h.names {
		if match(strings.ToLower(name)) {
			return i
		}
	}
	return -1
}

func (h header) exact(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRows converts a table whose first row is the header into words.
// Rows without a translation or foreign term are counted as rejected.
// A table without a Word column fails as a whole.
func ParseRows(rows [][]string, lang Language) ([]core.Word, int, error) {
	if len(rows) == 0 {
		return nil, 0, ErrMissingWordColumn
	}
	h := newHeader(rows[0])

	wordCol := h.exact(wordColumn)
	if wordCol < 0 {
		return nil, 0, ErrMissingWordColumn
	}
	m1Col := h.exact(meaning1Column)
	m2Col := h.exact(meaning2Column)
	phraseCol := h.find(func(s string) bool {
		return strings.Contains(s, "pharase") || strings.Contains(s, "phrase")
	})
	sentenceTRCol := -1
	if lang == German {
		sentenceTRCol = h.find(func(s string) bool {
			return strings.Contains(s, "turkish") && strings.Contains(s, "meaning")
		})
	}

	var words []core.Word
	rejected := 0
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		w := core.Word{
			TR:       translation(cell(row, m1Col), cell(row, m2Col)),
			Sentence: cell(row, phraseCol),
			Type:     TypeGeneral,
		}
		term := cell(row, wordCol)
		switch lang {
		case German:
			w.DE = term
			w.SentenceTR = cell(row, sentenceTRCol)
			w.Type = GermanNounType(term)
		default:
			w.EN = term
		}
		if err := w.Validate(); err != nil {
			rejected++
			continue
		}
		words = append(words, w)
	}
	return words, rejected, nil
}

func translation(m1, m2 string) string {
	if m2 == "" {
		return m1
	}
	return strings.Trim(m1+", "+m2, ", ")
}

// GermanNounType derives the card type from a leading article.
func GermanNounType(term string) string {
	lower := strings.ToLower(term)
	for _, article := range []string{"der", "die", "das"} {
		if strings.HasPrefix(lower, article+" ") {
			return "Noun (" + article + ")"
		}
	}
	return TypeGeneral
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
