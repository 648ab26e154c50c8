package workout

import (
	"fmt"
	"strings"

	"lifedash/internal/core"
)

// Section labels.
const (
	SectionWarmUp    = "Warm-up"
	SectionChest     = "Chest"
	SectionBack      = "Back"
	SectionShoulders = "Shoulders"
	SectionArms      = "Arms"
	SectionLegs      = "Legs"
	SectionCore      = "Core"
	SectionCardio    = "Cardio"
)

var sectionOrder = []string{
	SectionWarmUp, SectionChest, SectionBack, SectionShoulders,
	SectionArms, SectionLegs, SectionCore, SectionCardio,
}

var catalog = map[string][]string{
	SectionWarmUp:    {"Jumping Jacks", "Arm Circles", "Band Pull-Apart", "Hip Openers", "Light Rowing"},
	SectionChest:     {"Bench Press", "Incline Dumbbell Press", "Chest Fly", "Push-Up", "Cable Crossover"},
	SectionBack:      {"Deadlift", "Pull-Up", "Lat Pulldown", "Seated Cable Row", "Bent-Over Row"},
	SectionShoulders: {"Overhead Press", "Lateral Raise", "Rear Delt Fly", "Arnold Press", "Face Pull"},
	SectionArms:      {"Barbell Curl", "Hammer Curl", "Triceps Pushdown", "Skull Crusher", "Dips"},
	SectionLegs:      {"Squat", "Leg Press", "Romanian Deadlift", "Lunge", "Leg Curl", "Calf Raise"},
	SectionCore:      {"Plank", "Crunch", "Hanging Leg Raise", "Russian Twist", "Ab Wheel"},
	SectionCardio:    {"Treadmill", "Stationary Bike", "Elliptical", "Rowing Machine", "Stair Climber"},
}

// Sections lists the section labels in display order.
func Sections() []string {
	return append([]string(nil), sectionOrder...)
}

// BodyParts lists the labels that can make up a session focus.
func BodyParts() []string {
	return append([]string(nil), sectionOrder[1:len(sectionOrder)-1]...)
}

// CanonicalSection maps a case-insensitive label to its canonical spelling.
func CanonicalSection(name string) (string, error) {
	name = strings.TrimSpace(name)
	for _, s := range sectionOrder {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown section %q", core.ErrValidation, name)
}

// Catalog returns the exercises suggested for a section.
func Catalog(section string) ([]string, error) {
	name, err := CanonicalSection(section)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), catalog[name]...), nil
}

// Focus joins the chosen body parts into a session focus label.
func Focus(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " + ")
}
