package vocab

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"lifedash/internal/core"
)

func TestParseRows_English(t *testing.T) {
	rows := [][]string{
		{" Word ", "Meaning 1", "Meaning 2", "Example Pharase"},
		{"apple", "elma", "", "An apple a day."},
		{"run", "koşmak", "çalıştırmak", ""},
		{"ghost", "", "", "no meaning"},
		{"", "boş", "", ""},
		{"", "", "", ""},
	}

	words, rejected, err := ParseRows(rows, English)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	want := []core.Word{
		{EN: "apple", TR: "elma", Sentence: "An apple a day.", Type: TypeGeneral},
		{EN: "run", TR: "koşmak, çalıştırmak", Type: TypeGeneral},
	}
	if diff := cmp.Diff(want, words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
}

func TestParseRows_German(t *testing.T) {
	rows := [][]string{
		{"Word", "Meaning 1", "Phrase", "Meaning in Turkish"},
		{"der Hund", "köpek", "Der Hund bellt.", "Köpek havlıyor."},
		{"Die Katze", "kedi", "", ""},
		{"das Haus", "ev", "", ""},
		{"laufen", "koşmak", "", ""},
	}

	words, rejected, err := ParseRows(rows, German)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if rejected != 0 || len(words) != 4 {
		t.Fatalf("got %d words, %d rejected", len(words), rejected)
	}
	if words[0].DE != "der Hund" || words[0].SentenceTR != "Köpek havlıyor." || words[0].Sentence != "Der Hund bellt." {
		t.Errorf("first word = %+v", words[0])
	}
	gotTypes := []string{words[0].Type, words[1].Type, words[2].Type, words[3].Type}
	wantTypes := []string{"Noun (der)", "Noun (die)", "Noun (das)", TypeGeneral}
	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRows_MissingWordColumn(t *testing.T) {
	for _, rows := range [][][]string{
		nil,
		{{"Term", "Meaning 1"}, {"apple", "elma"}},
	} {
		if _, _, err := ParseRows(rows, English); !errors.Is(err, ErrMissingWordColumn) || !errors.Is(err, core.ErrValidation) {
			t.Errorf("err = %v, want ErrMissingWordColumn", err)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	if l, err := ParseLanguage(" DE "); err != nil || l != German {
		t.Errorf("ParseLanguage(DE) = %q, %v", l, err)
	}
	if _, err := ParseLanguage("fr"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("ParseLanguage(fr) err = %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("Word,Meaning 1\napple,elma\nrun\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := [][]string{{"Word", "Meaning 1"}, {"apple", "elma"}, {"run"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Word", "Meaning 1", "Pharase"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]any{"apple", "elma", "An apple a day."}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ReadFile("words.xlsx", buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	words, rejected, err := ParseRows(rows, English)
	if err != nil || rejected != 0 || len(words) != 1 {
		t.Fatalf("ParseRows = %v, %d, %v", words, rejected, err)
	}
	if words[0].Sentence != "An apple a day." {
		t.Errorf("sentence = %q", words[0].Sentence)
	}
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	if _, err := ReadFile("words.xls", strings.NewReader("")); !errors.Is(err, core.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func cards(n int) []Card {
	out := make([]Card, n)
	for i := range out {
		out[i] = Card{ID: string(rune('a' + i%26)), Word: core.Word{EN: "w", TR: "t"}}
	}
	return out
}

func TestNewQuiz_Sampling(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	if _, err := NewQuiz(cards(4), rng); !errors.Is(err, ErrNotEnoughWords) {
		t.Errorf("4 words err = %v, want ErrNotEnoughWords", err)
	}
	tests := []struct{ words, want int }{{5, 5}, {15, 15}, {40, 15}}
	for _, tt := range tests {
		q, err := NewQuiz(cards(tt.words), rng)
		if err != nil {
			t.Fatalf("NewQuiz(%d): %v", tt.words, err)
		}
		if q.Len() != tt.want {
			t.Errorf("NewQuiz(%d).Len() = %d, want %d", tt.words, q.Len(), tt.want)
		}
	}
}

func TestQuiz_Flow(t *testing.T) {
	words := []Card{
		{ID: "1", Word: core.Word{EN: "apple", TR: "elma", Sentence: "An apple."}},
		{ID: "2", Word: core.Word{DE: "der Hund", TR: "köpek"}},
		{ID: "3", Word: core.Word{EN: "run", TR: "koşmak"}},
		{ID: "4", Word: core.Word{EN: "sky", TR: "gök"}},
		{ID: "5", Word: core.Word{EN: "sea", TR: "deniz"}},
	}
	q, err := NewQuiz(words, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := q.Answer(true); !errors.Is(err, ErrNotRevealed) {
		t.Fatalf("answer before reveal err = %v", err)
	}

	seen := map[string]bool{}
	for i := 0; !q.Done(); i++ {
		cur, ok := q.Current()
		if !ok || cur.Revealed || cur.Meaning != "" {
			t.Fatalf("question %d before reveal = %+v", i, cur)
		}
		if cur.Number != i+1 || cur.Total != 5 {
			t.Errorf("question numbering = %d/%d", cur.Number, cur.Total)
		}
		shown, err := q.Reveal()
		if err != nil || shown.Meaning == "" {
			t.Fatalf("Reveal = %+v, %v", shown, err)
		}
		card, err := q.Answer(i%2 == 0)
		if err != nil {
			t.Fatal(err)
		}
		if card.Word.Prompt() != cur.Prompt {
			t.Errorf("answered card %q, asked %q", card.Word.Prompt(), cur.Prompt)
		}
		seen[card.ID] = true
	}

	if len(seen) != 5 {
		t.Errorf("saw %d distinct cards, want 5", len(seen))
	}
	if q.Score() != 3 {
		t.Errorf("score = %d, want 3", q.Score())
	}
	if _, err := q.Reveal(); !errors.Is(err, ErrQuizFinished) {
		t.Errorf("reveal after finish err = %v", err)
	}
	if _, err := q.Answer(true); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("answer after finish err = %v", err)
	}
}
