package services

import (
	"context"
	"strings"
	"time"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
)

type HabitService struct {
	documents
}

func NewHabitService(store docstore.Store, publisher Publisher) *HabitService {
	return &HabitService{documents: documents{store: store, publisher: publisher}}
}

func (s *HabitService) CheckIn(ctx context.Context, c core.HabitCheckIn) (string, error) {
	c.Habit = strings.TrimSpace(c.Habit)
	c.Note = strings.TrimSpace(c.Note)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return s.create(ctx, docstore.Habits, c)
}

// ListCheckIns returns check-ins newest first, limited to one habit when
// habit is not empty.
func (s *HabitService) ListCheckIns(ctx context.Context, habit string) ([]Stored[core.HabitCheckIn], []core.Notice) {
	items, notices := list[core.HabitCheckIn](ctx, s.store, docstore.Habits)
	if strings.TrimSpace(habit) == "" {
		return items, notices
	}
	out := items[:0]
	for _, it := range items {
		if sameHabit(it.Record.Habit, habit) {
			out = append(out, it)
		}
	}
	return out, notices
}

func (s *HabitService) Delete(ctx context.Context, id string) error {
	return s.remove(ctx, docstore.Habits, id)
}

// Streak counts consecutive days with a check-in, ending on asOf's day.
func (s *HabitService) Streak(ctx context.Context, habit string, asOf time.Time) (int, []core.Notice) {
	items, notices := s.ListCheckIns(ctx, habit)
	days := make(map[string]bool, len(items))
	for _, it := range items {
		days[it.Record.Day.String()] = true
	}
	return Streak(days, core.DateOf(asOf)), notices
}

// Streak counts back from asOf while days holds each date.
func Streak(days map[string]bool, asOf core.Date) int {
	n := 0
	for d := asOf; days[d.String()]; d = d.AddDays(-1) {
		n++
	}
	return n
}

func sameHabit(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
