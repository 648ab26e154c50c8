// Package workout records a live workout session: sections opened and closed
// one at a time, exercises and their entries appended while a section is
// open, and a frozen summary produced on finish.
//
// A Recorder holds exactly one logical session and is owned by its caller.
// It is not safe for concurrent use; callers that share one across
// goroutines must serialise access themselves.
package workout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lifedash/internal/core"
)

var (
	ErrAlreadyActive      = fmt.Errorf("%w: a session is already active", core.ErrInvalidState)
	ErrSessionNotActive   = fmt.Errorf("%w: no active session", core.ErrInvalidState)
	ErrSectionAlreadyOpen = fmt.Errorf("%w: a section is already open", core.ErrInvalidState)
	ErrNoOpenSection      = fmt.Errorf("%w: no open section", core.ErrInvalidState)
	ErrSectionStillOpen   = fmt.Errorf("%w: close the open section before finishing", core.ErrInvalidState)
	ErrInvalidEntryKind   = fmt.Errorf("%w: entry kind does not match section", core.ErrInvalidState)
	ErrEmptyExerciseName  = fmt.Errorf("%w: exercise name is required", core.ErrValidation)
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

type Recorder struct {
	now     func() time.Time
	session *Session
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Active reports whether a session has been started and not yet finished.
func (r *Recorder) Active() bool {
	return r.session != nil
}

// Snapshot returns a deep copy of the in-progress session.
func (r *Recorder) Snapshot() (Session, bool) {
	if r.session == nil {
		return Session{}, false
	}
	out := Session{
		Focus:     r.session.Focus,
		StartedAt: r.session.StartedAt,
		Sections:  make([]Section, len(r.session.Sections)),
	}
	for i, s := range r.session.Sections {
		out.Sections[i] = s.clone()
	}
	if r.session.Current != nil {
		cur := r.session.Current.clone()
		out.Current = &cur
	}
	return out, true
}

func (r *Recorder) Start(focus string) error {
	if r.session != nil {
		return ErrAlreadyActive
	}
	r.session = &Session{
		Focus:     strings.TrimSpace(focus),
		StartedAt: r.now(),
		Sections:  []Section{},
	}
	return nil
}

func (r *Recorder) OpenSection(name string) error {
	if r.session == nil {
		return ErrSessionNotActive
	}
	if r.session.Current != nil {
		return ErrSectionAlreadyOpen
	}
	canonical, err := CanonicalSection(name)
	if err != nil {
		return err
	}
	r.session.Current = &Section{
		Name:      canonical,
		StartedAt: r.now(),
		Exercises: []Exercise{},
	}
	return nil
}

// AddEntry appends entry to the named exercise of the open section, creating
// the exercise on first use. The section is left untouched on any error.
func (r *Recorder) AddEntry(exerciseName string, entry Entry) error {
	if r.session == nil || r.session.Current == nil {
		return ErrNoOpenSection
	}
	cur := r.session.Current
	if entry.Kind != cur.ExpectedKind() {
		return fmt.Errorf("%w: %s section expects %s entries, got %s", ErrInvalidEntryKind, cur.Name, cur.ExpectedKind(), entry.Kind)
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return ErrEmptyExerciseName
	}

	for i := range cur.Exercises {
		if cur.Exercises[i].Name == exerciseName {
			cur.Exercises[i].Entries = append(cur.Exercises[i].Entries, entry.clone())
			return nil
		}
	}
	cur.Exercises = append(cur.Exercises, Exercise{Name: exerciseName, Entries: []Entry{entry.clone()}})
	return nil
}

// CloseSection fixes the open section's duration and appends it to the session.
func (r *Recorder) CloseSection() (Section, error) {
	if r.session == nil || r.session.Current == nil {
		return Section{}, ErrNoOpenSection
	}
	cur := r.session.Current
	cur.DurationMinutes = elapsedMinutes(cur.StartedAt, r.now())
	r.session.Sections = append(r.session.Sections, *cur)
	r.session.Current = nil
	return cur.clone(), nil
}

// Finish freezes the session and resets the recorder. With a section still
// open it fails and leaves the session as it was.
func (r *Recorder) Finish() (FinishedSession, error) {
	if r.session == nil {
		return FinishedSession{}, ErrSessionNotActive
	}
	if r.session.Current != nil {
		return FinishedSession{}, ErrSectionStillOpen
	}

	sections := make([]Section, len(r.session.Sections))
	for i, s := range r.session.Sections {
		sections[i] = s.clone()
	}
	finished := FinishedSession{
		Focus:                r.session.Focus,
		StartedAt:            r.session.StartedAt,
		TotalDurationMinutes: elapsedMinutes(r.session.StartedAt, r.now()),
		Sections:             sections,
		HardestSectionName:   HardestSection(sections),
	}
	r.session = nil
	return finished, nil
}

// elapsedMinutes rounds to the nearest minute and never goes negative, even
// if the wall clock stepped backwards.
func elapsedMinutes(from, to time.Time) int {
	m := math.Round(to.Sub(from).Minutes())
	if m < 0 {
		return 0
	}
	return int(m)
}
