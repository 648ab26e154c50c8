package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"lifedash/internal/core"
	"lifedash/internal/docstore/memory"
	applog "lifedash/internal/log"
	"lifedash/internal/prices"
	"lifedash/internal/services"
	sheetsmem "lifedash/internal/sheets/memory"
	"lifedash/internal/totals"
	"lifedash/internal/workout"
)

var june5 = time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	logs *bytes.Buffer
}

func newTestServer(t *testing.T, opts Options) testServer {
	t.Helper()
	store := memory.New()
	quotes := prices.Static{"VWCE.XETRA": decimal.RequireFromString("118.42")}

	var logs bytes.Buffer
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.NewTextConfig(&logs, slog.LevelDebug, applog.ComponentHTTP))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return june5 }
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	srv := NewServer(":0", Services{
		Finance:    services.NewFinanceService(store, quotes, nil),
		Workouts:   services.NewWorkoutService(store, nil),
		Vocabulary: services.NewVocabularyService(store, nil),
		Habits:     services.NewHabitService(store, nil),
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return testServer{Server: srv, logs: &logs}
}

func (ts testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails unless rec has the wanted status, then decodes the
// envelope's data into into (when not nil) and returns the notices.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int, into any) []core.Notice {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
	if into == nil {
		return nil
	}
	var env struct {
		Data    json.RawMessage `json:"data"`
		Notices []core.Notice   `json:"notices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body: %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode data: %v; data: %s", err, env.Data)
	}
	return env.Notices
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	mustStatus(t, rec, http.StatusCreated, &out)
	if out.ID == "" {
		t.Fatal("empty id")
	}
	return out.ID
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := ts.do(t, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}

	down := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db gone") }})
	rec := down.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "db gone") {
		t.Errorf("readyz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/api/expenses", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(ts.logs.String(), "HTTP request completed") {
		t.Errorf("request not logged: %s", ts.logs.String())
	}
}

func TestRoutingErrors(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"request_id"`) {
		t.Errorf("unknown route = %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPut, "/api/expenses", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/expenses = %d", rec.Code)
	}
}

func TestExpenses(t *testing.T) {
	ts := newTestServer(t, Options{})

	createdID(t, ts.do(t, http.MethodPost, "/api/expenses", `{"description":"coffee","amount":"2.50","occurred_on":"2024-06-05"}`))
	createdID(t, ts.do(t, http.MethodPost, "/api/expenses", `{"description":"books","amount":"20","occurred_on":"2024-06-03"}`))
	// No date means today.
	createdID(t, ts.do(t, http.MethodPost, "/api/expenses", `{"description":"lunch","amount":12.5}`))

	var items []services.Stored[core.Expense]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/expenses", ""), http.StatusOK, &items)
	if len(items) != 3 || items[0].Record.Description != "lunch" || items[0].Record.OccurredOn.String() != "2024-06-05" {
		t.Fatalf("items = %+v", items)
	}

	var got totals.Totals
	mustStatus(t, ts.do(t, http.MethodGet, "/api/expenses/totals?as_of=2024-06-05", ""), http.StatusOK, &got)
	want := totals.Totals{Daily: core.Money{Cents: 1500}, Weekly: core.Money{Cents: 3500}, Monthly: core.Money{Cents: 3500}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("totals (-want +got):\n%s", diff)
	}

	mustStatus(t, ts.do(t, http.MethodDelete, "/api/expenses/"+items[0].ID, ""), http.StatusNoContent, nil)
	mustStatus(t, ts.do(t, http.MethodDelete, "/api/expenses/"+items[0].ID, ""), http.StatusNotFound, nil)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t, Options{})
	tests := []struct {
		name string
		path string
		body string
	}{
		{"empty description", "/api/expenses", `{"description":"  ","amount":"1"}`},
		{"negative amount", "/api/expenses", `{"description":"x","amount":"-1"}`},
		{"bad amount", "/api/expenses", `{"description":"x","amount":"abc"}`},
		{"unknown field", "/api/expenses", `{"description":"x","amount":"1","tip":"2"}`},
		{"malformed", "/api/expenses", `{"description":`},
		{"empty body", "/api/expenses", ``},
		{"two objects", "/api/expenses", `{"description":"x","amount":"1"}{}`},
		{"remaining over total", "/api/debts", `{"name":"car","total":"10","remaining":"20"}`},
		{"zero quantity", "/api/investments", `{"symbol":"AAPL","quantity":"0","cost_basis":"10"}`},
		{"word without translation", "/api/words", `{"en":"house"}`},
		{"habit without name", "/api/habits", `{"habit":""}`},
		{"bad date", "/api/habits", `{"habit":"read","day":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			ts.Handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422; body: %s", rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`description=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("form body status = %d, want 422", rec.Code)
	}
}

func TestPaymentDecrementsDebt(t *testing.T) {
	ts := newTestServer(t, Options{})

	debtID := createdID(t, ts.do(t, http.MethodPost, "/api/debts", `{"name":"car","total":"100.00","opened_on":"2024-01-01"}`))
	createdID(t, ts.do(t, http.MethodPost, "/api/payments", `{"description":"instalment","amount":"30","debt_id":"`+debtID+`"}`))
	createdID(t, ts.do(t, http.MethodPost, "/api/payments", `{"description":"final","amount":"90","debt_id":"`+debtID+`"}`))

	var debts []services.Stored[core.Debt]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/debts", ""), http.StatusOK, &debts)
	if len(debts) != 1 || debts[0].Record.Remaining.Cents != 0 {
		t.Errorf("debts = %+v, want remaining floored at 0", debts)
	}

	rec := ts.do(t, http.MethodPost, "/api/payments", `{"description":"ghost","amount":"1","debt_id":"missing"}`)
	mustStatus(t, rec, http.StatusNotFound, nil)

	var payments []services.Stored[core.Payment]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/payments", ""), http.StatusOK, &payments)
	if len(payments) != 2 {
		t.Errorf("payments = %d, want 2", len(payments))
	}
}

func TestValuationAndDashboard(t *testing.T) {
	ts := newTestServer(t, Options{})

	createdID(t, ts.do(t, http.MethodPost, "/api/investments", `{"symbol":"vwce.xetra","quantity":"2","cost_basis":"200","currency":"EUR","bought_on":"2024-06-05"}`))
	createdID(t, ts.do(t, http.MethodPost, "/api/investments", `{"symbol":"AAPL","quantity":"1","cost_basis":"150","currency":"EUR","bought_on":"2024-06-05"}`))

	var v services.Valuation
	notices := mustStatus(t, ts.do(t, http.MethodGet, "/api/investments/valuation", ""), http.StatusOK, &v)
	if v.TotalValue.Cents != 38684 || v.TotalCost.Cents != 35000 {
		t.Errorf("totals = %v / %v", v.TotalValue, v.TotalCost)
	}
	if len(notices) != 1 || notices[0].Source != "prices" {
		t.Errorf("notices = %+v", notices)
	}
	if v.Notices != nil {
		t.Error("notices repeated inside data")
	}

	createdID(t, ts.do(t, http.MethodPost, "/api/habits", `{"habit":"read"}`))
	var d services.Dashboard
	mustStatus(t, ts.do(t, http.MethodGet, "/api/dashboard?as_of=2024-06-05", ""), http.StatusOK, &d)
	if d.Investments.Daily.Cents != 35000 || d.HabitCheckIns != 1 {
		t.Errorf("dashboard = %+v", d)
	}

	mustStatus(t, ts.do(t, http.MethodGet, "/api/dashboard?as_of=soon", ""), http.StatusUnprocessableEntity, nil)
}

func TestWorkoutSession(t *testing.T) {
	ts := newTestServer(t, Options{})

	var view sessionView
	mustStatus(t, ts.do(t, http.MethodPost, "/api/workouts/sessions", `{"body_parts":["Chest","Arms"]}`), http.StatusCreated, &view)
	if view.Session == nil || view.Session.Focus != "Chest + Arms" {
		t.Fatalf("session = %+v", view.Session)
	}
	base := "/api/workouts/sessions/" + view.ID
	bench := `{"exercise":"Bench Press","kind":"strength","strength":{"weight_kg":80,"reps":8,"effort":"high"}}`

	mustStatus(t, ts.do(t, http.MethodPost, base+"/entries", bench), http.StatusConflict, nil)
	mustStatus(t, ts.do(t, http.MethodPost, base+"/sections", `{"name":"legday"}`), http.StatusUnprocessableEntity, nil)

	mustStatus(t, ts.do(t, http.MethodPost, base+"/sections", `{"name":"chest"}`), http.StatusOK, &view)
	if view.Session.Current == nil || view.Session.Current.Name != workout.SectionChest {
		t.Fatalf("current = %+v", view.Session.Current)
	}
	mustStatus(t, ts.do(t, http.MethodPost, base+"/entries", bench), http.StatusOK, &view)
	mustStatus(t, ts.do(t, http.MethodPost, base+"/entries", `{"exercise":"Bench Press","kind":"cardio","cardio":{"duration_minutes":5}}`), http.StatusConflict, nil)

	mustStatus(t, ts.do(t, http.MethodPost, base+"/finish", ""), http.StatusConflict, nil)
	var closed sessionView
	mustStatus(t, ts.do(t, http.MethodPost, base+"/sections/close", ""), http.StatusOK, &closed)
	if closed.Session == nil || len(closed.Session.Sections) != 1 || closed.Session.Current != nil {
		t.Fatalf("after close = %+v", closed.Session)
	}

	var finished services.Stored[workout.FinishedSession]
	mustStatus(t, ts.do(t, http.MethodPost, base+"/finish", ""), http.StatusCreated, &finished)
	if finished.ID == "" || finished.Record.HardestSectionName != workout.SectionChest {
		t.Errorf("finished = %+v", finished)
	}
	mustStatus(t, ts.do(t, http.MethodGet, base, ""), http.StatusNotFound, nil)

	var list []services.Stored[workout.FinishedSession]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts", ""), http.StatusOK, &list)
	if len(list) != 1 || list[0].ID != finished.ID {
		t.Errorf("workouts = %+v", list)
	}
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts/"+finished.ID, ""), http.StatusOK, &finished)
	mustStatus(t, ts.do(t, http.MethodDelete, "/api/workouts/"+finished.ID, ""), http.StatusNoContent, nil)
}

func TestWorkoutSession_Abandon(t *testing.T) {
	ts := newTestServer(t, Options{})
	var view sessionView
	mustStatus(t, ts.do(t, http.MethodPost, "/api/workouts/sessions", `{"focus":"Legs"}`), http.StatusCreated, &view)

	mustStatus(t, ts.do(t, http.MethodDelete, "/api/workouts/sessions/"+view.ID, ""), http.StatusNoContent, nil)
	mustStatus(t, ts.do(t, http.MethodDelete, "/api/workouts/sessions/"+view.ID, ""), http.StatusNotFound, nil)
	if n := ts.recorders.Len(); n != 0 {
		t.Errorf("recorders = %d", n)
	}
}

func TestSaveWorkout(t *testing.T) {
	ts := newTestServer(t, Options{})

	const chest = `{"name":"Chest","started_at":"2024-06-05T09:05:00Z","duration_minutes":%d,"exercises":[` +
		`{"name":"Bench Press","entries":[{"kind":"strength","strength":{"weight_kg":80,"reps":8,"effort":"high"}}]}]}`
	body := func(total, section int) string {
		return fmt.Sprintf(`{"focus":"Chest","started_at":"2024-06-05T09:00:00Z","total_duration_minutes":%d,"sections":[`+chest+`]}`, total, section)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"negative total", body(-90, 30), http.StatusUnprocessableEntity},
		{"negative section", body(90, -30), http.StatusUnprocessableEntity},
		{"cardio in chest", `{"focus":"Chest","started_at":"2024-06-05T09:00:00Z","sections":[{"name":"Chest","exercises":[{"name":"Row","entries":[{"kind":"cardio","cardio":{"duration_minutes":5}}]}]}]}`, http.StatusUnprocessableEntity},
		{"no start", `{"focus":"Chest"}`, http.StatusUnprocessableEntity},
		{"valid", body(90, 30), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustStatus(t, ts.do(t, http.MethodPost, "/api/workouts", tt.body), tt.want, nil)
		})
	}

	var list []services.Stored[workout.FinishedSession]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts", ""), http.StatusOK, &list)
	if len(list) != 1 {
		t.Fatalf("stored %d workouts, want only the valid one", len(list))
	}
	got := list[0].Record
	if got.TotalDurationMinutes != 90 || got.Sections[0].DurationMinutes != 30 || got.HardestSectionName != workout.SectionChest {
		t.Errorf("stored = %+v", got)
	}
}

func TestRequestLogging(t *testing.T) {
	ts := newTestServer(t, Options{})

	id := createdID(t, ts.do(t, http.MethodPost, "/api/expenses", `{"description":"coffee","amount":"2.50","occurred_on":"2024-06-05"}`))
	mustStatus(t, ts.do(t, http.MethodPost, "/api/expenses", `{"description":"","amount":"2.50"}`), http.StatusUnprocessableEntity, nil)
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts/missing", ""), http.StatusNotFound, nil)

	out := ts.logs.String()
	for _, want := range []string{
		"msg=\"Document created\"",
		"collection=expenses",
		"document_id=" + id,
		"amount_cents=250",
		"error_type=validation_error",
		"error_type=not_found_error",
		"operation=read",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %q:\n%s", want, out)
		}
	}
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t, Options{})

	var all catalogView
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts/catalog", ""), http.StatusOK, &all)
	if len(all.Sections) != 8 || len(all.Exercises[workout.SectionLegs]) == 0 {
		t.Errorf("catalog = %+v", all)
	}

	var legs []string
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts/catalog?section=legs", ""), http.StatusOK, &legs)
	if len(legs) == 0 || legs[0] != "Squat" {
		t.Errorf("legs = %v", legs)
	}
	mustStatus(t, ts.do(t, http.MethodGet, "/api/workouts/catalog?section=tail", ""), http.StatusUnprocessableEntity, nil)
}

func TestQuiz(t *testing.T) {
	ts := newTestServer(t, Options{})

	mustStatus(t, ts.do(t, http.MethodPost, "/api/quizzes", ""), http.StatusUnprocessableEntity, nil)
	for _, w := range []string{"house", "tree", "water", "bread", "apple"} {
		createdID(t, ts.do(t, http.MethodPost, "/api/words", `{"en":"`+w+`","tr":"tr-`+w+`"}`))
	}

	var view quizView
	mustStatus(t, ts.do(t, http.MethodPost, "/api/quizzes", ""), http.StatusCreated, &view)
	if view.Total != 5 || view.Question == nil || view.Question.Meaning != "" {
		t.Fatalf("quiz = %+v", view)
	}
	base := "/api/quizzes/" + view.ID

	mustStatus(t, ts.do(t, http.MethodPost, base+"/answer", `{"knew":true}`), http.StatusConflict, nil)
	mustStatus(t, ts.do(t, http.MethodPost, base+"/answer", `{}`), http.StatusUnprocessableEntity, nil)

	for i := 0; i < 5; i++ {
		mustStatus(t, ts.do(t, http.MethodPost, base+"/reveal", ""), http.StatusOK, &view)
		if view.Question == nil || view.Question.Meaning != "tr-"+view.Question.Prompt {
			t.Fatalf("revealed = %+v", view.Question)
		}
		mustStatus(t, ts.do(t, http.MethodPost, base+"/answer", `{"knew":`+map[bool]string{true: "true", false: "false"}[i%2 == 0]+`}`), http.StatusOK, &view)
	}
	if !view.Done || view.Score != 3 {
		t.Errorf("final = %+v", view)
	}
	mustStatus(t, ts.do(t, http.MethodGet, base, ""), http.StatusNotFound, nil)

	var words []services.Stored[core.Word]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/words", ""), http.StatusOK, &words)
	learned := 0
	for _, w := range words {
		learned += w.Record.LearnedCount
	}
	if learned != 3 {
		t.Errorf("learned counts sum = %d, want 3", learned)
	}
}

func TestWords_SearchAndImport(t *testing.T) {
	ts := newTestServer(t, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("lang", "de")
	fw, err := mw.CreateFormFile("file", "words.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(fw, "Word,Meaning 1,Meaning 2\nder Tisch,masa,\ndas Haus,ev,konut\n,,\nallein,,\n")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/words/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)

	var res services.ImportResult
	mustStatus(t, rec, http.StatusOK, &res)
	if res.Added != 2 || res.Rejected != 1 {
		t.Errorf("import = %+v", res)
	}

	var found []services.Stored[core.Word]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/words?q=KONUT", ""), http.StatusOK, &found)
	if len(found) != 1 || found[0].Record.DE != "das Haus" {
		t.Errorf("search = %+v", found)
	}

	rec = ts.do(t, http.MethodPost, "/api/words/import", `{"lang":"de"}`)
	mustStatus(t, rec, http.StatusUnprocessableEntity, nil)
}

func TestWords_ImportSheet(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodPost, "/api/words/import/sheet", `{"range":"German!A:F","lang":"de"}`)
	mustStatus(t, rec, http.StatusServiceUnavailable, nil)

	tabs := sheetsmem.New()
	tabs.SetTab("German", [][]string{
		{"Word", "Meaning 1", "Meaning 2"},
		{"die Lampe", "lamba", ""},
		{"gehen", "", ""},
	})
	ts.svc.Sheets = tabs

	var res services.ImportResult
	rec = ts.do(t, http.MethodPost, "/api/words/import/sheet", `{"range":"German!A:F","lang":"de"}`)
	mustStatus(t, rec, http.StatusOK, &res)
	if res.Added != 1 || res.Rejected != 1 {
		t.Errorf("import = %+v", res)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing range", `{"lang":"de"}`, http.StatusUnprocessableEntity},
		{"bad lang", `{"range":"German!A:F","lang":"fr"}`, http.StatusUnprocessableEntity},
		{"unknown tab", `{"range":"French!A:F","lang":"de"}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustStatus(t, ts.do(t, http.MethodPost, "/api/words/import/sheet", tt.body), tt.want, nil)
		})
	}
}

func TestHabits(t *testing.T) {
	ts := newTestServer(t, Options{})
	var last string
	for _, day := range []string{"2024-06-01", "2024-06-03", "2024-06-04", "2024-06-05"} {
		last = createdID(t, ts.do(t, http.MethodPost, "/api/habits", `{"habit":"Read","day":"`+day+`"}`))
	}
	createdID(t, ts.do(t, http.MethodPost, "/api/habits", `{"habit":"run","day":"2024-06-05"}`))

	var streak streakView
	mustStatus(t, ts.do(t, http.MethodGet, "/api/habits/streak?habit=read&as_of=2024-06-05", ""), http.StatusOK, &streak)
	if streak.Streak != 3 {
		t.Errorf("streak = %+v, want 3", streak)
	}
	mustStatus(t, ts.do(t, http.MethodGet, "/api/habits/streak", ""), http.StatusUnprocessableEntity, nil)

	var items []services.Stored[core.HabitCheckIn]
	mustStatus(t, ts.do(t, http.MethodGet, "/api/habits?habit=run", ""), http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("run check-ins = %d", len(items))
	}

	mustStatus(t, ts.do(t, http.MethodDelete, "/api/habits/"+last, ""), http.StatusNoContent, nil)
	mustStatus(t, ts.do(t, http.MethodGet, "/api/habits/streak?habit=read&as_of=2024-06-05", ""), http.StatusOK, &streak)
	if streak.Streak != 0 {
		t.Errorf("streak after delete = %d, want 0", streak.Streak)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{RateLimit: 2})
	for i := 0; i < 2; i++ {
		mustStatus(t, ts.do(t, http.MethodGet, "/api/expenses", ""), http.StatusOK, nil)
	}
	rec := ts.do(t, http.MethodGet, "/api/expenses", "")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("third request = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	mustStatus(t, ts.do(t, http.MethodGet, "/healthz", ""), http.StatusOK, nil)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{core.ErrEmptyName, http.StatusUnprocessableEntity},
		{workout.ErrSectionStillOpen, http.StatusConflict},
		{ErrSessionNotFound, http.StatusNotFound},
		{core.ErrExternalUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dsn password=secret"))
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("response = %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := `{"description":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var e core.Expense
	err := decodeJSON(httptest.NewRecorder(), req, &e)
	if !errors.Is(err, core.ErrValidation) || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("decodeJSON = %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
