// Package feed keeps subscribers supplied with complete, newest-first
// snapshots of the note collection and provides the pure helpers used to
// narrow, group and total a snapshot.
package feed

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/oklog/ulid/v2"

	"noteally/internal/metrics"
	"noteally/internal/model"
	"noteally/internal/repository"
)

// Lister is the read side of the note store the synchronizer needs.
type Lister interface {
	List(ctx context.Context, q repository.NoteQuery) ([]model.Note, error)
}

// Snapshot is the complete list of notes matching a subscription at one point in time.
type Snapshot struct {
	ID      string       `json:"id"`
	Notes   []model.Note `json:"notes"`
	TakenAt time.Time    `json:"takenAt"`
}

// Synchronizer turns hub notifications into snapshot sequences.
type Synchronizer struct {
	notes   Lister
	hub     *Hub
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSynchronizer creates a Synchronizer reading from notes and woken by hub.
// m may be nil.
func NewSynchronizer(notes Lister, hub *Hub, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{notes: notes, hub: hub, metrics: m, now: time.Now}
}

// Subscribe returns an unbounded sequence of snapshots for q, newest note
// first. The first snapshot is read immediately; each later one follows a
// change notification. The sequence ends when ctx is cancelled or the caller
// stops ranging, and in both cases the hub registration is released.
//
// A failed read is yielded once, wrapped in model.ErrStore, and ends the
// sequence. There is no retry.
func (s *Synchronizer) Subscribe(ctx context.Context, q repository.NoteQuery) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		// Register before the first read so a change landing between the read
		// and the wait is not lost.
		changes, cancel := s.hub.Subscribe()
		defer cancel()

		s.metrics.SubscriberOpened()
		defer s.metrics.SubscriberClosed()

		for {
			notes, err := s.notes.List(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(Snapshot{}, fmt.Errorf("%w: list notes: %w", model.ErrStore, err))
				return
			}

			snap := Snapshot{
				ID:      ulid.Make().String(),
				Notes:   notes,
				TakenAt: s.now().UTC(),
			}
			if !yield(snap, nil) {
				return
			}
			s.metrics.SnapshotDelivered()

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}
}

// Current reads a single snapshot without subscribing.
func (s *Synchronizer) Current(ctx context.Context, q repository.NoteQuery) (Snapshot, error) {
	notes, err := s.notes.List(ctx, q)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: list notes: %w", model.ErrStore, err)
	}
	return Snapshot{ID: ulid.Make().String(), Notes: notes, TakenAt: s.now().UTC()}, nil
}
