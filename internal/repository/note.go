package repository

import (
	"context"

	"noteally/internal/model"
)

// NoteRepository defines data access for notes using SQL queries only.
// No business logic here, strictly persistence operations.
type NoteRepository interface {
	// Create inserts a new note. The store assigns ID and CreatedAt and the
	// returned note carries them.
	Create(ctx context.Context, note *model.Note) (*model.Note, error)

	// FindByID returns a note by its ID.
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// List returns every note matching q, newest first.
	List(ctx context.Context, q NoteQuery) ([]model.Note, error)

	// Update applies field directives to a single note in one statement.
	// It returns sql.ErrNoRows when the note does not exist.
	Update(ctx context.Context, id string, u NoteUpdate) error

	// Delete removes the note with id owned by ownerID.
	// It returns sql.ErrNoRows when no such note exists for that owner.
	Delete(ctx context.Context, id, ownerID string) error
}

// NoteQuery scopes a note listing. An empty OwnerID selects every note.
type NoteQuery struct {
	OwnerID string
}

// NoteUpdate is a set of field directives written together.
// Nil counters and empty set members are left untouched.
type NoteUpdate struct {
	Likes         *int
	Views         *int
	AddLikedBy    string
	RemoveLikedBy string
}

// Empty reports whether u carries no directive.
func (u NoteUpdate) Empty() bool {
	return u.Likes == nil && u.Views == nil && u.AddLikedBy == "" && u.RemoveLikedBy == ""
}

// IntPtr is a small helper for building NoteUpdate values.
func IntPtr(v int) *int {
	return &v
}
