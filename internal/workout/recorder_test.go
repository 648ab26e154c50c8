package workout

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lifedash/internal/core"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder() (*Recorder, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 5, 18, 0, 0, 0, time.UTC)}
	return NewRecorder(WithClock(clock.Now)), clock
}

func heavySet(effort Effort) Entry {
	return Strength(StrengthSet{WeightKg: 80, Reps: 8, RangeOfMotion: RangeFull, Effort: effort})
}

func TestRecorder_FullSession(t *testing.T) {
	r, clock := newTestRecorder()

	if err := r.Start(Focus("Chest", "Arms")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.OpenSection("chest"); err != nil {
		t.Fatalf("OpenSection: %v", err)
	}
	for _, e := range []Entry{heavySet(EffortModerate), heavySet(EffortHigh), heavySet(EffortFailure)} {
		if err := r.AddEntry("Bench Press", e); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	if err := r.AddEntry("Chest Fly", heavySet(EffortEasy)); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	clock.Advance(20*time.Minute + 40*time.Second)
	sec, err := r.CloseSection()
	if err != nil {
		t.Fatalf("CloseSection: %v", err)
	}
	if sec.DurationMinutes != 21 {
		t.Errorf("section duration = %d, want 21", sec.DurationMinutes)
	}
	if sec.Name != SectionChest {
		t.Errorf("section name = %q, want canonical %q", sec.Name, SectionChest)
	}

	if err := r.OpenSection("Cardio"); err != nil {
		t.Fatalf("OpenSection cardio: %v", err)
	}
	if err := r.AddEntry("Treadmill", Cardio(CardioInterval{DurationMinutes: 15, DistanceKm: 2.5, Calories: 180, InclinePercent: 3, Speed: 10})); err != nil {
		t.Fatalf("AddEntry cardio: %v", err)
	}
	clock.Advance(15 * time.Minute)
	if _, err := r.CloseSection(); err != nil {
		t.Fatalf("CloseSection: %v", err)
	}

	clock.Advance(2 * time.Minute)
	fin, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if fin.Focus != "Chest + Arms" {
		t.Errorf("focus = %q", fin.Focus)
	}
	if fin.TotalDurationMinutes != 38 {
		t.Errorf("total duration = %d, want 38", fin.TotalDurationMinutes)
	}
	if len(fin.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(fin.Sections))
	}
	if got := fin.Sections[0].Exercises[0].Entries; len(got) != 3 {
		t.Errorf("bench press entries = %d, want 3", len(got))
	}
	if fin.HardestSectionName != SectionChest {
		t.Errorf("hardest = %q, want Chest", fin.HardestSectionName)
	}
	if r.Active() {
		t.Error("recorder should be inactive after Finish")
	}
}

func TestRecorder_StateErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func(r *Recorder) error
		want error
	}{
		{
			name: "start twice",
			run: func(r *Recorder) error {
				_ = r.Start("Legs")
				return r.Start("Back")
			},
			want: ErrAlreadyActive,
		},
		{
			name: "open section without session",
			run:  func(r *Recorder) error { return r.OpenSection("Legs") },
			want: ErrSessionNotActive,
		},
		{
			name: "open second section",
			run: func(r *Recorder) error {
				_ = r.Start("Legs")
				_ = r.OpenSection("Legs")
				return r.OpenSection("Core")
			},
			want: ErrSectionAlreadyOpen,
		},
		{
			name: "add entry without section",
			run: func(r *Recorder) error {
				_ = r.Start("Legs")
				return r.AddEntry("Squat", heavySet(EffortHigh))
			},
			want: ErrNoOpenSection,
		},
		{
			name: "close without section",
			run: func(r *Recorder) error {
				_ = r.Start("Legs")
				_, err := r.CloseSection()
				return err
			},
			want: ErrNoOpenSection,
		},
		{
			name: "finish without session",
			run: func(r *Recorder) error {
				_, err := r.Finish()
				return err
			},
			want: ErrSessionNotActive,
		},
		{
			name: "strength entry in cardio section",
			run: func(r *Recorder) error {
				_ = r.Start("Cardio")
				_ = r.OpenSection("Cardio")
				return r.AddEntry("Treadmill", heavySet(EffortHigh))
			},
			want: ErrInvalidEntryKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRecorder()
			err := tt.run(r)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if !errors.Is(err, core.ErrInvalidState) {
				t.Fatalf("error %v should be an invalid state error", err)
			}
		})
	}
}

func TestRecorder_UnknownSection(t *testing.T) {
	r, _ := newTestRecorder()
	_ = r.Start("Legs")
	err := r.OpenSection("Neck")
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("OpenSection(Neck) = %v, want validation error", err)
	}
	if err := r.OpenSection("Legs"); err != nil {
		t.Fatalf("OpenSection after failure: %v", err)
	}
}

func TestRecorder_MismatchedEntryDoesNotMutate(t *testing.T) {
	r, _ := newTestRecorder()
	_ = r.Start("Chest")
	_ = r.OpenSection("Chest")
	if err := r.AddEntry("Bench Press", heavySet(EffortHigh)); err != nil {
		t.Fatal(err)
	}
	before, _ := r.Snapshot()

	err := r.AddEntry("Bench Press", Cardio(CardioInterval{DurationMinutes: 5}))
	if !errors.Is(err, ErrInvalidEntryKind) {
		t.Fatalf("AddEntry(cardio) = %v, want ErrInvalidEntryKind", err)
	}
	err = r.AddEntry("Rowing", Cardio(CardioInterval{DurationMinutes: 5}))
	if !errors.Is(err, ErrInvalidEntryKind) {
		t.Fatalf("AddEntry(cardio, new exercise) = %v, want ErrInvalidEntryKind", err)
	}

	after, _ := r.Snapshot()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("session mutated by rejected entry (-before +after):\n%s", diff)
	}
}

func TestRecorder_FinishWithOpenSectionKeepsState(t *testing.T) {
	r, clock := newTestRecorder()
	_ = r.Start("Back")
	_ = r.OpenSection("Back")
	_ = r.AddEntry("Deadlift", heavySet(EffortFailure))

	if _, err := r.Finish(); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("Finish with open section = %v, want invalid state", err)
	}
	snap, ok := r.Snapshot()
	if !ok || snap.Current == nil || len(snap.Current.Exercises) != 1 {
		t.Fatalf("session state lost after failed Finish: %+v", snap)
	}

	clock.Advance(10 * time.Minute)
	if _, err := r.CloseSection(); err != nil {
		t.Fatalf("CloseSection: %v", err)
	}
	fin, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(fin.Sections) != 1 || fin.Sections[0].DurationMinutes != 10 {
		t.Errorf("unexpected sections: %+v", fin.Sections)
	}
}

func TestRecorder_ClockGoingBackwards(t *testing.T) {
	r, clock := newTestRecorder()
	_ = r.Start("Core")
	_ = r.OpenSection("Core")
	clock.Advance(-5 * time.Minute)
	sec, err := r.CloseSection()
	if err != nil {
		t.Fatal(err)
	}
	if sec.DurationMinutes != 0 {
		t.Errorf("duration = %d, want 0", sec.DurationMinutes)
	}
	fin, _ := r.Finish()
	if fin.TotalDurationMinutes != 0 {
		t.Errorf("total = %d, want 0", fin.TotalDurationMinutes)
	}
}

func TestHardestSection_TieGoesToFirst(t *testing.T) {
	r, _ := newTestRecorder()
	_ = r.Start("Chest + Back")
	for _, name := range []string{"Chest", "Back"} {
		_ = r.OpenSection(name)
		_ = r.AddEntry("Lift", heavySet(EffortHigh))
		_ = r.AddEntry("Lift", Strength(StrengthSet{WeightKg: 40, Reps: 12, DropSet: true}))
		_, _ = r.CloseSection()
	}
	fin, err := r.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if fin.HardestSectionName != SectionChest {
		t.Errorf("hardest = %q, want first-opened %q", fin.HardestSectionName, SectionChest)
	}
}

func TestHardestSection(t *testing.T) {
	sections := []Section{
		{Name: "Warm-up"},
		{Name: "Legs", Exercises: []Exercise{{Name: "Squat", Entries: []Entry{heavySet(EffortHigh)}}}},
		{Name: "Cardio", Exercises: []Exercise{{Name: "Bike", Entries: []Entry{Cardio(CardioInterval{DurationMinutes: 30})}}}},
	}
	if got := HardestSection(sections); got != "Legs" {
		t.Errorf("HardestSection = %q, want Legs", got)
	}
	if got := HardestSection(nil); got != "" {
		t.Errorf("HardestSection(nil) = %q, want empty", got)
	}
	if got := HardestSection(sections[:1]); got != "Warm-up" {
		t.Errorf("HardestSection(no hard entries) = %q, want first section", got)
	}
}

func TestFinishedSession_JSONRoundTrip(t *testing.T) {
	r, clock := newTestRecorder()
	_ = r.Start("Legs")
	_ = r.OpenSection("Warm-up")
	_ = r.AddEntry("Hip Openers", Strength(StrengthSet{Reps: 10, Effort: EffortEasy}))
	clock.Advance(5 * time.Minute)
	_, _ = r.CloseSection()
	_ = r.OpenSection("Legs")
	_ = r.AddEntry("Squat", heavySet(EffortHigh))
	_ = r.AddEntry("Leg Press", heavySet(EffortFailure))
	_ = r.AddEntry("Squat", heavySet(EffortModerate))
	clock.Advance(30 * time.Minute)
	_, _ = r.CloseSection()
	fin, err := r.Finish()
	if err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(fin)
	if err != nil {
		t.Fatal(err)
	}
	var back FinishedSession
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fin, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog(t *testing.T) {
	got, err := Catalog("legs")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0] != "Squat" {
		t.Errorf("Catalog(legs) = %v", got)
	}
	if _, err := Catalog("tail"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Catalog(tail) = %v, want validation error", err)
	}
}

func TestFocus(t *testing.T) {
	if got := Focus("Chest", " ", "Back "); got != "Chest + Back" {
		t.Errorf("Focus = %q", got)
	}
	if got := Focus(); got != "" {
		t.Errorf("Focus() = %q, want empty", got)
	}
}

func TestFinishedSession_Validate(t *testing.T) {
	r, clock := newTestRecorder()
	_ = r.Start("Chest")
	_ = r.OpenSection(SectionChest)
	_ = r.AddEntry("Bench Press", heavySet(EffortHigh))
	clock.Advance(20 * time.Minute)
	_, _ = r.CloseSection()
	recorded, err := r.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := recorded.Validate(); err != nil {
		t.Fatalf("recorded session rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FinishedSession)
	}{
		{"no start", func(fs *FinishedSession) { fs.StartedAt = time.Time{} }},
		{"negative total", func(fs *FinishedSession) { fs.TotalDurationMinutes = -90 }},
		{"negative section", func(fs *FinishedSession) { fs.Sections[0].DurationMinutes = -30 }},
		{"unnamed section", func(fs *FinishedSession) { fs.Sections[0].Name = " " }},
		{"bad entry", func(fs *FinishedSession) { fs.Sections[0].Exercises[0].Entries[0].Strength.Reps = -1 }},
		{"cardio in strength section", func(fs *FinishedSession) {
			fs.Sections[0].Exercises[0].Entries[0] = Cardio(CardioInterval{DurationMinutes: 5})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := recorded
			fs.Sections = []Section{recorded.Sections[0].clone()}
			tt.mutate(&fs)
			if err := fs.Validate(); !errors.Is(err, core.ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}
