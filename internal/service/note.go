package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"noteally/internal/auth"
	"noteally/internal/engagement"
	"noteally/internal/feed"
	"noteally/internal/metrics"
	"noteally/internal/model"
	"noteally/internal/repository"
	"noteally/internal/storage"
)

// PDFContentType is the only content type accepted for uploads.
const PDFContentType = "application/pdf"

const blobPrefix = "notes/"

var tracer = otel.Tracer("noteally/internal/service")

// UploadInput is a note upload as received from the client.
type UploadInput struct {
	Title       string
	Subject     string
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// FeedQuery narrows the public feed. A nil Subject means all subjects.
type FeedQuery struct {
	Search  string
	Subject *string
}

// FeedResult is one rendering of the public feed.
type FeedResult struct {
	SnapshotID string       `json:"snapshotId,omitempty"`
	Items      []model.Note `json:"data"`
	Subjects   []string     `json:"subjects"`
	Total      int          `json:"total"`
}

// DashboardResult is the signed-in user's own notes and their totals.
type DashboardResult struct {
	SnapshotID string       `json:"snapshotId,omitempty"`
	Email      string       `json:"email"`
	Items      []model.Note `json:"data"`
	Stats      feed.Stats   `json:"stats"`
}

// Download is either an open blob stream or a URL to redirect to.
type Download struct {
	Body        io.ReadCloser
	Info        storage.ObjectInfo
	RedirectURL string
}

// NoteService defines the use cases for sharing notes.
type NoteService interface {
	// Upload stores the PDF, then records the note. The blob is removed again if the record cannot be saved.
	Upload(ctx context.Context, sess *auth.Session, in UploadInput) (*model.Note, error)

	// Get returns a single note by its ID.
	Get(ctx context.Context, id string) (*model.Note, error)

	// Feed returns the current public feed narrowed by q.
	Feed(ctx context.Context, q FeedQuery) (*FeedResult, error)

	// SubscribeFeed yields a fresh FeedResult every time the note collection changes.
	SubscribeFeed(ctx context.Context, q FeedQuery) iter.Seq2[*FeedResult, error]

	// Dashboard returns the session owner's notes with like and view totals.
	Dashboard(ctx context.Context, sess *auth.Session) (*DashboardResult, error)

	// SubscribeDashboard is the live form of Dashboard.
	SubscribeDashboard(ctx context.Context, sess *auth.Session) iter.Seq2[*DashboardResult, error]

	// ToggleLike likes or unlikes the note for the session owner.
	ToggleLike(ctx context.Context, sess *auth.Session, id string) (*model.Note, error)

	// RecordView counts one view of the note.
	RecordView(ctx context.Context, id string) (*model.Note, error)

	// Delete removes one of the session owner's notes. The stored PDF is kept.
	Delete(ctx context.Context, sess *auth.Session, id string, confirmed bool) error

	// Download opens the blob stored under key.
	Download(ctx context.Context, key string) (*Download, error)
}

// NoteServiceConfig holds the service's non-collaborator settings.
type NoteServiceConfig struct {
	// FileBaseURL prefixes the /files/{key} locator stored as a note's fileURL.
	FileBaseURL      string
	PresignDownloads bool
	PresignExpiry    time.Duration
	Metrics          *metrics.Metrics
}

// noteService is a concrete implementation of NoteService.
type noteService struct {
	store   storage.Storage
	repo    repository.NoteRepository
	hub     *feed.Hub
	sync    *feed.Synchronizer
	mutator *engagement.Mutator
	cfg     NoteServiceConfig
	now     func() time.Time
}

// NewNoteService constructs a new NoteService.
func NewNoteService(store storage.Storage, repo repository.NoteRepository, hub *feed.Hub, cfg NoteServiceConfig) NoteService {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	return &noteService{
		store:   store,
		repo:    repo,
		hub:     hub,
		sync:    feed.NewSynchronizer(repo, hub, cfg.Metrics),
		mutator: engagement.NewMutator(repo, cfg.Metrics),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *noteService) Upload(ctx context.Context, sess *auth.Session, in UploadInput) (_ *model.Note, err error) {
	ctx, span := tracer.Start(ctx, "NoteService.Upload", trace.WithAttributes(
		attribute.String("note.user_id", auth.UserID(sess)),
		attribute.Int64("note.file_size", in.Size),
	))
	defer func() { endSpan(span, err) }()

	if sess == nil {
		s.cfg.Metrics.Upload("rejected")
		return nil, fmt.Errorf("%w: you must be logged in to upload", model.ErrAuth)
	}
	title := strings.TrimSpace(in.Title)
	subject := strings.TrimSpace(in.Subject)
	if title == "" || subject == "" || in.File == nil {
		s.cfg.Metrics.Upload("rejected")
		return nil, fmt.Errorf("%w: all fields including PDF file are required", model.ErrValidation)
	}
	if !isPDF(in.ContentType) {
		s.cfg.Metrics.Upload("rejected")
		return nil, fmt.Errorf("%w: please upload a PDF file", model.ErrValidation)
	}

	// notes/{user}/{millis}_{original name} keeps re-uploads of the same file apart.
	key := fmt.Sprintf("%s%s/%d_%s", blobPrefix, sess.UserID, s.now().UnixMilli(), baseName(in.Filename))

	objInfo, err := s.store.Put(ctx, key, in.File, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: PDFContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
			"user-id":           sess.UserID,
		},
	})
	if err != nil {
		s.cfg.Metrics.Upload("failed")
		return nil, fmt.Errorf("%w: upload to storage: %w", model.ErrStore, err)
	}

	note := &model.Note{
		Title:         title,
		Subject:       subject,
		FileURL:       s.fileURL(objInfo.Key),
		StoragePath:   objInfo.Key,
		UserID:        sess.UserID,
		UploaderEmail: sess.Email,
		Likes:         0,
		LikedBy:       []string{},
		Views:         0,
	}
	stored, err := s.repo.Create(ctx, note)
	if err != nil {
		s.cfg.Metrics.Upload("failed")
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("%w: db save failed: %v; rollback delete failed: %v", model.ErrStore, err, delErr)
		}
		return nil, fmt.Errorf("%w: db save failed: %w", model.ErrStore, err)
	}

	s.cfg.Metrics.Upload("ok")
	s.hub.Publish()
	return stored, nil
}

func (s *noteService) Get(ctx context.Context, id string) (*model.Note, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", model.ErrValidation)
	}
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStore, err)
	}
	return note, nil
}

func (s *noteService) Feed(ctx context.Context, q FeedQuery) (*FeedResult, error) {
	snap, err := s.sync.Current(ctx, repository.NoteQuery{})
	if err != nil {
		return nil, err
	}
	return feedResult(snap, q), nil
}

func (s *noteService) SubscribeFeed(ctx context.Context, q FeedQuery) iter.Seq2[*FeedResult, error] {
	return func(yield func(*FeedResult, error) bool) {
		for snap, err := range s.sync.Subscribe(ctx, repository.NoteQuery{}) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(feedResult(snap, q), nil) {
				return
			}
		}
	}
}

func (s *noteService) Dashboard(ctx context.Context, sess *auth.Session) (*DashboardResult, error) {
	if sess == nil {
		return nil, model.ErrAuth
	}
	snap, err := s.sync.Current(ctx, repository.NoteQuery{OwnerID: sess.UserID})
	if err != nil {
		return nil, err
	}
	return dashboardResult(sess, snap), nil
}

func (s *noteService) SubscribeDashboard(ctx context.Context, sess *auth.Session) iter.Seq2[*DashboardResult, error] {
	return func(yield func(*DashboardResult, error) bool) {
		if sess == nil {
			yield(nil, model.ErrAuth)
			return
		}
		for snap, err := range s.sync.Subscribe(ctx, repository.NoteQuery{OwnerID: sess.UserID}) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(dashboardResult(sess, snap), nil) {
				return
			}
		}
	}
}

func (s *noteService) ToggleLike(ctx context.Context, sess *auth.Session, id string) (_ *model.Note, err error) {
	ctx, span := tracer.Start(ctx, "NoteService.ToggleLike", trace.WithAttributes(
		attribute.String("note.id", id),
		attribute.String("note.user_id", auth.UserID(sess)),
	))
	defer func() { endSpan(span, err) }()

	if sess == nil {
		return nil, fmt.Errorf("%w: please log in to like notes", model.ErrPermission)
	}
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.mutator.ToggleLike(ctx, *note, sess.UserID)
	if err != nil {
		return nil, err
	}
	s.hub.Publish()
	return &updated, nil
}

func (s *noteService) RecordView(ctx context.Context, id string) (*model.Note, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.mutator.RecordView(ctx, *note)
	if err != nil {
		return nil, err
	}
	s.hub.Publish()
	return &updated, nil
}

func (s *noteService) Delete(ctx context.Context, sess *auth.Session, id string, confirmed bool) (err error) {
	ctx, span := tracer.Start(ctx, "NoteService.Delete", trace.WithAttributes(
		attribute.String("note.id", id),
		attribute.String("note.user_id", auth.UserID(sess)),
	))
	defer func() { endSpan(span, err) }()

	if sess == nil {
		return model.ErrAuth
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", model.ErrValidation)
	}
	if !confirmed {
		return fmt.Errorf("%w: deletion must be confirmed", model.ErrValidation)
	}
	// Scoped to the owner; the blob under note.StoragePath is left in place.
	if err := s.repo.Delete(ctx, id, sess.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("%w: %w", model.ErrStore, err)
	}
	s.hub.Publish()
	return nil
}

func (s *noteService) Download(ctx context.Context, key string) (*Download, error) {
	if !strings.HasPrefix(key, blobPrefix) || path.Clean(key) != key {
		return nil, fmt.Errorf("%w: invalid file path", model.ErrValidation)
	}

	if s.cfg.PresignDownloads {
		u, err := s.store.PresignGet(ctx, key, s.cfg.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("%w: presign: %w", model.ErrStore, err)
		}
		return &Download{RedirectURL: u}, nil
	}

	body, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", model.ErrStore, err)
	}
	return &Download{Body: body, Info: info}, nil
}

func (s *noteService) fileURL(key string) string {
	return strings.TrimRight(s.cfg.FileBaseURL, "/") + (&url.URL{Path: "/files/" + key}).EscapedPath()
}

func feedResult(snap feed.Snapshot, q FeedQuery) *FeedResult {
	items := feed.Filter(snap.Notes, q.Search, q.Subject)
	return &FeedResult{
		SnapshotID: snap.ID,
		Items:      items,
		// Folders come from the whole snapshot so narrowing never hides them.
		Subjects: feed.DeriveSubjects(snap.Notes),
		Total:    len(items),
	}
}

func dashboardResult(sess *auth.Session, snap feed.Snapshot) *DashboardResult {
	return &DashboardResult{
		SnapshotID: snap.ID,
		Email:      sess.Email,
		Items:      snap.Notes,
		Stats:      feed.Aggregate(snap.Notes),
	}
}

// isPDF accepts only the exact PDF media type, with no parameters.
func isPDF(contentType string) bool {
	return contentType == PDFContentType
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "note.pdf"
	}
	return name
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
