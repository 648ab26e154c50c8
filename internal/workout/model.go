package workout

import (
	"fmt"
	"strings"
	"time"

	"lifedash/internal/core"
)

// EntryKind distinguishes strength sets from cardio intervals.
type EntryKind string

const (
	KindStrength EntryKind = "strength"
	KindCardio   EntryKind = "cardio"
)

// Effort is the perceived effort of a strength set.
type Effort string

const (
	EffortEasy     Effort = "easy"
	EffortModerate Effort = "moderate"
	EffortHigh     Effort = "high"
	EffortFailure  Effort = "failure"
)

// RangeOfMotion categorises how much of the movement a set covered.
type RangeOfMotion string

const (
	RangeFull    RangeOfMotion = "full"
	RangePartial RangeOfMotion = "partial"
)

type StrengthSet struct {
	WeightKg      float64       `json:"weight_kg"`
	Reps          int           `json:"reps"`
	RangeOfMotion RangeOfMotion `json:"range_of_motion,omitempty"`
	Effort        Effort        `json:"effort,omitempty"`
	DropSet       bool          `json:"drop_set"`
}

type CardioInterval struct {
	DurationMinutes float64 `json:"duration_minutes"`
	DistanceKm      float64 `json:"distance_km"`
	Calories        int     `json:"calories"`
	InclinePercent  float64 `json:"incline_percent"`
	Speed           float64 `json:"speed"`
}

// Entry is one recorded unit of performance. Exactly one of Strength or
// Cardio is set, matching Kind.
type Entry struct {
	Kind     EntryKind       `json:"kind"`
	Strength *StrengthSet    `json:"strength,omitempty"`
	Cardio   *CardioInterval `json:"cardio,omitempty"`
}

// Strength wraps a set as an Entry.
func Strength(s StrengthSet) Entry {
	return Entry{Kind: KindStrength, Strength: &s}
}

// Cardio wraps an interval as an Entry.
func Cardio(c CardioInterval) Entry {
	return Entry{Kind: KindCardio, Cardio: &c}
}

// Validate checks that the payload matches the kind and holds sane numbers.
func (e Entry) Validate() error {
	switch e.Kind {
	case KindStrength:
		if e.Strength == nil || e.Cardio != nil {
			return fmt.Errorf("%w: strength entry needs a strength payload", core.ErrValidation)
		}
		if e.Strength.Reps < 0 || e.Strength.WeightKg < 0 {
			return fmt.Errorf("%w: weight and reps must not be negative", core.ErrValidation)
		}
		switch e.Strength.Effort {
		case "", EffortEasy, EffortModerate, EffortHigh, EffortFailure:
		default:
			return fmt.Errorf("%w: unknown effort %q", core.ErrValidation, e.Strength.Effort)
		}
		switch e.Strength.RangeOfMotion {
		case "", RangeFull, RangePartial:
		default:
			return fmt.Errorf("%w: unknown range of motion %q", core.ErrValidation, e.Strength.RangeOfMotion)
		}
	case KindCardio:
		if e.Cardio == nil || e.Strength != nil {
			return fmt.Errorf("%w: cardio entry needs a cardio payload", core.ErrValidation)
		}
		c := e.Cardio
		if c.DurationMinutes < 0 || c.DistanceKm < 0 || c.Calories < 0 || c.Speed < 0 {
			return fmt.Errorf("%w: cardio values must not be negative", core.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown entry kind %q", core.ErrValidation, e.Kind)
	}
	return nil
}

// Hard reports whether the entry counts towards a section's difficulty.
func (e Entry) Hard() bool {
	if e.Kind != KindStrength || e.Strength == nil {
		return false
	}
	return e.Strength.Effort == EffortHigh || e.Strength.Effort == EffortFailure || e.Strength.DropSet
}

func (e Entry) clone() Entry {
	out := Entry{Kind: e.Kind}
	if e.Strength != nil {
		s := *e.Strength
		out.Strength = &s
	}
	if e.Cardio != nil {
		c := *e.Cardio
		out.Cardio = &c
	}
	return out
}

type Exercise struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type Section struct {
	Name            string     `json:"name"`
	StartedAt       time.Time  `json:"started_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Exercises       []Exercise `json:"exercises"`
}

// ExpectedKind is cardio for the cardio section and strength for everything else.
func (s Section) ExpectedKind() EntryKind {
	return expectedKind(s.Name)
}

func expectedKind(sectionName string) EntryKind {
	if strings.EqualFold(strings.TrimSpace(sectionName), SectionCardio) {
		return KindCardio
	}
	return KindStrength
}

// HardCount counts entries flagged high effort, failure, or drop set.
func (s Section) HardCount() int {
	n := 0
	for _, ex := range s.Exercises {
		for _, e := range ex.Entries {
			if e.Hard() {
				n++
			}
		}
	}
	return n
}

func (s Section) clone() Section {
	out := s
	out.Exercises = make([]Exercise, len(s.Exercises))
	for i, ex := range s.Exercises {
		entries := make([]Entry, len(ex.Entries))
		for j, e := range ex.Entries {
			entries[j] = e.clone()
		}
		out.Exercises[i] = Exercise{Name: ex.Name, Entries: entries}
	}
	return out
}

// Session is the in-progress workout. Sections holds closed sections only.
type Session struct {
	Focus     string    `json:"focus"`
	StartedAt time.Time `json:"started_at"`
	Sections  []Section `json:"sections"`
	Current   *Section  `json:"current,omitempty"`
}

// FinishedSession is the immutable record produced by Recorder.Finish.
type FinishedSession struct {
	Focus                string    `json:"focus"`
	StartedAt            time.Time `json:"started_at"`
	TotalDurationMinutes int       `json:"total_duration_minutes"`
	Sections             []Section `json:"sections"`
	HardestSectionName   string    `json:"hardest_section_name"`
}

// Validate checks a session arriving from outside the recorder. Durations
// must not be negative and every entry must suit its section.
func (fs FinishedSession) Validate() error {
	if fs.StartedAt.IsZero() {
		return fmt.Errorf("%w: finished session has no start time", core.ErrValidation)
	}
	if fs.TotalDurationMinutes < 0 {
		return fmt.Errorf("%w: total duration must not be negative", core.ErrValidation)
	}
	for _, sec := range fs.Sections {
		if strings.TrimSpace(sec.Name) == "" {
			return fmt.Errorf("%w: section name is required", core.ErrValidation)
		}
		if sec.DurationMinutes < 0 {
			return fmt.Errorf("%w: section %q duration must not be negative", core.ErrValidation, sec.Name)
		}
		for _, ex := range sec.Exercises {
			for _, e := range ex.Entries {
				if err := e.Validate(); err != nil {
					return err
				}
				if e.Kind != sec.ExpectedKind() {
					return fmt.Errorf("%w: %s entry in section %q", core.ErrValidation, e.Kind, sec.Name)
				}
			}
		}
	}
	return nil
}

// HardestSection returns the name of the section with the most hard entries.
// The first section wins ties; an empty list yields "".
func HardestSection(sections []Section) string {
	best, bestCount := "", -1
	for _, s := range sections {
		if c := s.HardCount(); c > bestCount {
			best, bestCount = s.Name, c
		}
	}
	return best
}
