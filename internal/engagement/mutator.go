// Package engagement applies like and view changes to a single note.
//
// Counters are computed from the caller's snapshot of the note and written
// as plain values next to the native set directive; they are not atomic
// increments. Two clients acting on the same stale snapshot can therefore
// leave likes or views off by one, and likes may drift from len(likedBy).
// The next feed snapshot shows whatever the store settled on.
package engagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"noteally/internal/metrics"
	"noteally/internal/model"
	"noteally/internal/repository"
)

// Updater is the write side of the note store the mutator needs.
type Updater interface {
	Update(ctx context.Context, id string, u repository.NoteUpdate) error
}

// Mutator toggles likes and records views.
type Mutator struct {
	notes   Updater
	metrics *metrics.Metrics
}

// NewMutator creates a Mutator writing through notes. m may be nil.
func NewMutator(notes Updater, m *metrics.Metrics) *Mutator {
	return &Mutator{notes: notes, metrics: m}
}

// ToggleLike flips actingUserID's like on note, deciding the direction from
// note.LikedBy as the caller last saw it. It returns the note as it should
// look after the write.
func (m *Mutator) ToggleLike(ctx context.Context, note model.Note, actingUserID string) (model.Note, error) {
	if actingUserID == "" {
		return note, fmt.Errorf("%w: sign in to like notes", model.ErrPermission)
	}

	out := note
	var (
		u         repository.NoteUpdate
		direction string
	)
	if note.LikedByUser(actingUserID) {
		// A liked note with a zero counter stays at zero.
		prior := max(note.Likes, 1)
		out.Likes = prior - 1
		out.LikedBy = slices.DeleteFunc(slices.Clone(note.LikedBy), func(id string) bool { return id == actingUserID })
		u = repository.NoteUpdate{RemoveLikedBy: actingUserID, Likes: repository.IntPtr(out.Likes)}
		direction = "unlike"
	} else {
		out.Likes = note.Likes + 1
		out.LikedBy = append(slices.Clone(note.LikedBy), actingUserID)
		u = repository.NoteUpdate{AddLikedBy: actingUserID, Likes: repository.IntPtr(out.Likes)}
		direction = "like"
	}

	if err := m.apply(ctx, note.ID, u); err != nil {
		return note, fmt.Errorf("update like: %w", err)
	}
	m.metrics.LikeToggled(direction)
	return out, nil
}

// RecordView adds one view to note. Repeated views by the same viewer all count.
func (m *Mutator) RecordView(ctx context.Context, note model.Note) (model.Note, error) {
	out := note
	out.Views = note.Views + 1
	if err := m.apply(ctx, note.ID, repository.NoteUpdate{Views: repository.IntPtr(out.Views)}); err != nil {
		return note, fmt.Errorf("update views: %w", err)
	}
	m.metrics.ViewRecorded()
	return out, nil
}

func (m *Mutator) apply(ctx context.Context, id string, u repository.NoteUpdate) error {
	if id == "" {
		return fmt.Errorf("%w: note id is required", model.ErrValidation)
	}
	err := m.notes.Update(ctx, id, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.ErrNotFound
	default:
		return fmt.Errorf("%w: %w", model.ErrStore, err)
	}
}
