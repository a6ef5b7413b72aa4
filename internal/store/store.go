package store

import (
	"context"
	"errors"

	"crewtime/internal/model"
)

// Store is the read side of the scheduling data store. Assignments are
// written elsewhere; this service never writes them back.
type Store interface {
	// ListAssignments returns a crew's assignments for one crew-local date
	// (YYYY-MM-DD), in no particular order.
	ListAssignments(ctx context.Context, crewID, date string) ([]model.Assignment, error)
	// GetCrew returns the crew record, or ErrNotFound.
	GetCrew(ctx context.Context, crewID string) (model.Crew, error)
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
