package services

import (
	"context"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	"lifedash/internal/workout"
)

// WorkoutService persists finished sessions. Recording itself happens in a
// caller-owned workout.Recorder.
type WorkoutService struct {
	documents
}

func NewWorkoutService(store docstore.Store, publisher Publisher) *WorkoutService {
	return &WorkoutService{documents: documents{store: store, publisher: publisher}}
}

func (s *WorkoutService) Save(ctx context.Context, fs workout.FinishedSession) (string, error) {
	if err := fs.Validate(); err != nil {
		return "", err
	}
	return s.create(ctx, docstore.Workouts, fs)
}

// Finish ends the recorder's session and stores it. When saving fails the
// finished session is still returned so the caller can retry the save.
func (s *WorkoutService) Finish(ctx context.Context, r *workout.Recorder) (Stored[workout.FinishedSession], error) {
	fs, err := r.Finish()
	if err != nil {
		return Stored[workout.FinishedSession]{}, err
	}
	id, err := s.Save(ctx, fs)
	return Stored[workout.FinishedSession]{ID: id, Record: fs}, err
}

func (s *WorkoutService) List(ctx context.Context) ([]Stored[workout.FinishedSession], []core.Notice) {
	return list[workout.FinishedSession](ctx, s.store, docstore.Workouts)
}

func (s *WorkoutService) Get(ctx context.Context, id string) (Stored[workout.FinishedSession], error) {
	return get[workout.FinishedSession](ctx, s.store, docstore.Workouts, id)
}

func (s *WorkoutService) Delete(ctx context.Context, id string) error {
	return s.remove(ctx, docstore.Workouts, id)
}
