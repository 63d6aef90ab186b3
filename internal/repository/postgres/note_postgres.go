package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"noteally/internal/model"
	"noteally/internal/repository"
)

// ErrConflictingDirectives is returned when an update both adds and removes a liked_by member.
var ErrConflictingDirectives = errors.New("liked_by add and remove in one update")

const noteColumns = `id, title, subject, file_url, storage_path, user_id, uploader_email, created_at, likes, liked_by, views`

// NotePostgres is a PostgreSQL implementation of repository.NoteRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type NotePostgres struct {
	db *sql.DB
}

// NewNotePostgres creates a new NotePostgres repository.
func NewNotePostgres(db *sql.DB) *NotePostgres {
	return &NotePostgres{db: db}
}

var _ repository.NoteRepository = (*NotePostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads one row in noteColumns order. liked_by is a text[] and is
// decoded through pgtype so the same code works for the pgx driver and for
// the text form returned by test doubles. A pgtype.Map caches scan plans and
// is not safe for concurrent use, so callers pass one per query.
func scanNote(types *pgtype.Map, row rowScanner) (*model.Note, error) {
	var (
		n       model.Note
		likedBy []string
	)
	if err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Subject,
		&n.FileURL,
		&n.StoragePath,
		&n.UserID,
		&n.UploaderEmail,
		&n.CreatedAt,
		&n.Likes,
		types.SQLScanner(&likedBy),
		&n.Views,
	); err != nil {
		return nil, err
	}
	if likedBy == nil {
		likedBy = []string{}
	}
	n.LikedBy = likedBy
	return &n, nil
}

// Create inserts a new note row. id and created_at come from column defaults.
func (r *NotePostgres) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	const q = `
		INSERT INTO notes (title, subject, file_url, storage_path, user_id, uploader_email, likes, liked_by, views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', $8)
		RETURNING ` + noteColumns
	row := r.db.QueryRowContext(ctx, q,
		note.Title,
		note.Subject,
		note.FileURL,
		note.StoragePath,
		note.UserID,
		note.UploaderEmail,
		note.Likes,
		note.Views,
	)
	return scanNote(pgtype.NewMap(), row)
}

// FindByID fetches a single note by its ID.
func (r *NotePostgres) FindByID(ctx context.Context, id string) (*model.Note, error) {
	const q = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	return scanNote(pgtype.NewMap(), r.db.QueryRowContext(ctx, q, id))
}

// List returns notes newest first, optionally restricted to one owner.
func (r *NotePostgres) List(ctx context.Context, nq repository.NoteQuery) ([]model.Note, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if nq.OwnerID == "" {
		const q = `SELECT ` + noteColumns + ` FROM notes ORDER BY created_at DESC, id DESC`
		rows, err = r.db.QueryContext(ctx, q)
	} else {
		const q = `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
		rows, err = r.db.QueryContext(ctx, q, nq.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := pgtype.NewMap()
	items := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(types, rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes every directive in u with a single UPDATE statement.
// Set membership uses array_remove/array_append so adding an existing member
// never duplicates it.
func (r *NotePostgres) Update(ctx context.Context, id string, u repository.NoteUpdate) error {
	if u.Empty() {
		return nil
	}
	if u.AddLikedBy != "" && u.RemoveLikedBy != "" {
		return ErrConflictingDirectives
	}

	var (
		sets []string
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case u.AddLikedBy != "":
		p := next(u.AddLikedBy)
		sets = append(sets, fmt.Sprintf("liked_by = array_append(array_remove(liked_by, %s::text), %s::text)", p, p))
	case u.RemoveLikedBy != "":
		sets = append(sets, fmt.Sprintf("liked_by = array_remove(liked_by, %s::text)", next(u.RemoveLikedBy)))
	}
	if u.Likes != nil {
		sets = append(sets, "likes = "+next(*u.Likes))
	}
	if u.Views != nil {
		sets = append(sets, "views = "+next(*u.Views))
	}

	q := "UPDATE notes SET " + strings.Join(sets, ", ") + " WHERE id = " + next(id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a note scoped to its owner.
func (r *NotePostgres) Delete(ctx context.Context, id, ownerID string) error {
	const q = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
