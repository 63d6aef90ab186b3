package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"noteally/internal/auth"
	"noteally/internal/http/middleware"
	"noteally/internal/model"
	"noteally/internal/service"
	serviceMocks "noteally/internal/service/mocks"
	"noteally/internal/storage"
)

var alice = &auth.Session{UserID: "U1", Email: "alice@campus.edu", TokenID: "T1"}

// withSession stands in for the auth middleware.
func withSession(s *auth.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s != nil {
			c.Locals(middleware.SessionLocalKey, s)
		}
		return c.Next()
	}
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "noteally_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	app := fiber.New()
	app.Get("/metrics", Metrics(reg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "noteally_test_total 1")
}

func TestListNotes(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Get("/notes", ListNotes(mockSvc))

	t.Run("success with filters", func(t *testing.T) {
		expected := &service.FeedResult{
			Items:    []model.Note{{ID: uuid.New().String(), Title: "Cells", Subject: "Biology"}},
			Subjects: []string{"Biology", "Math"},
			Total:    1,
		}
		mockSvc.On("Feed", mock.Anything, mock.MatchedBy(func(q service.FeedQuery) bool {
			return q.Search == "cell" && q.Subject != nil && *q.Subject == "Biology"
		})).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/notes?search=cell&subject=Biology", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.FeedResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, []string{"Biology", "Math"}, result.Subjects)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no subject parameter means all subjects", func(t *testing.T) {
		mockSvc.On("Feed", mock.Anything, service.FeedQuery{}).Return(&service.FeedResult{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		mockSvc.On("Feed", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: list notes: dial tcp 10.0.0.5:5432", model.ErrStore)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes", nil))

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "STORE_ERROR", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "10.0.0.5")
		mockSvc.AssertExpectations(t)
	})
}

func pdfUpload(t *testing.T, fields map[string]string, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.7 test"))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadNote(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Post("/notes", withSession(alice), UploadNote(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, ct := pdfUpload(t, map[string]string{"title": "Midterm", "subject": "Biology"}, "review.pdf", "application/pdf")

		expected := &model.Note{ID: uuid.New().String(), Title: "Midterm", UserID: "U1"}
		mockSvc.On("Upload", mock.Anything, alice, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Title == "Midterm" &&
				in.Subject == "Biology" &&
				in.Filename == "review.pdf" &&
				in.ContentType == "application/pdf" &&
				in.Size == int64(len("%PDF-1.7 test")) &&
				in.File != nil
		})).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/notes", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Note
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file is a validation error", func(t *testing.T) {
		body, ct := pdfUpload(t, map[string]string{"title": "Midterm", "subject": "Biology"}, "", "")

		mockSvc.On("Upload", mock.Anything, alice, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.File == nil
		})).Return(nil, fmt.Errorf("%w: all fields including PDF file are required", model.ErrValidation)).Once()

		req := httptest.NewRequest(http.MethodPost, "/notes", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Contains(t, res.Error.Message, "PDF file are required")
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, ct := pdfUpload(t, map[string]string{"title": "Midterm", "subject": "Biology"}, "review.pdf", "application/pdf")
		mockSvc.On("Upload", mock.Anything, alice, mock.Anything).Return(nil, errors.New("upload failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/notes", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetNote(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Get("/notes/:id", GetNote(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Note{ID: id, Title: "Cells"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Note
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, model.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestToggleLike(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	id := uuid.New().String()

	t.Run("signed in", func(t *testing.T) {
		app := fiber.New()
		app.Post("/notes/:id/like", withSession(alice), ToggleLike(mockSvc))
		mockSvc.On("ToggleLike", mock.Anything, alice, id).
			Return(&model.Note{ID: id, Likes: 4, LikedBy: []string{"U1"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/notes/"+id+"/like", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Note
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 4, result.Likes)
		assert.Equal(t, []string{"U1"}, result.LikedBy)
	})

	t.Run("anonymous is forbidden", func(t *testing.T) {
		app := fiber.New()
		app.Post("/notes/:id/like", ToggleLike(mockSvc))
		mockSvc.On("ToggleLike", mock.Anything, (*auth.Session)(nil), id).
			Return(nil, fmt.Errorf("%w: please log in to like notes", model.ErrPermission)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/notes/"+id+"/like", nil))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "PERMISSION_DENIED", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestRecordView(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Post("/notes/:id/view", RecordView(mockSvc))
	id := uuid.New().String()

	mockSvc.On("RecordView", mock.Anything, id).Return(&model.Note{ID: id, Views: 10}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/notes/"+id+"/view", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result model.Note
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, 10, result.Views)
	mockSvc.AssertExpectations(t)
}

func TestDeleteNote(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Delete("/notes/:id", withSession(alice), DeleteNote(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, alice, id, true).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/notes/"+id+"?confirm=true", nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, alice, id, false).
			Return(fmt.Errorf("%w: deletion must be confirmed", model.ErrValidation)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/notes/"+id, nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, alice, id, true).Return(model.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/notes/"+id+"?confirm=true", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestDashboard(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Get("/dashboard", withSession(alice), Dashboard(mockSvc))

	mockSvc.On("Dashboard", mock.Anything, alice).Return(&service.DashboardResult{
		Email: "alice@campus.edu",
		Items: []model.Note{{ID: "n1", Likes: 2, Views: 5}},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result service.DashboardResult
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, "alice@campus.edu", result.Email)
	assert.Len(t, result.Items, 1)
	mockSvc.AssertExpectations(t)
}

func TestDownloadFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Get("/files/*", DownloadFile(mockSvc))

	t.Run("streams blob", func(t *testing.T) {
		key := "notes/U1/1700000000000_week 1.pdf"
		mockSvc.On("Download", mock.Anything, key).Return(&service.Download{
			Body: io.NopCloser(strings.NewReader("%PDF-1.7")),
			Info: storage.ObjectInfo{Key: key, Size: 8, ContentType: "application/pdf"},
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/notes/U1/1700000000000_week%201.pdf", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-1.7", string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("presigned redirect", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "notes/U1/a.pdf").
			Return(&service.Download{RedirectURL: "https://minio.local/notes/U1/a.pdf?X-Amz-Signature=abc"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/notes/U1/a.pdf", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.Equal(t, "https://minio.local/notes/U1/a.pdf?X-Amz-Signature=abc", resp.Header.Get("Location"))
	})

	t.Run("missing", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "notes/U1/gone.pdf").Return(nil, model.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/notes/U1/gone.pdf", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStreamNotes(t *testing.T) {
	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New()
	app.Get("/notes/stream", StreamNotes(mockSvc, 0))

	t.Run("snapshots", func(t *testing.T) {
		seq := func(yield func(*service.FeedResult, error) bool) {
			if !yield(&service.FeedResult{SnapshotID: "S1", Total: 0}, nil) {
				return
			}
			yield(&service.FeedResult{SnapshotID: "S2", Total: 1, Items: []model.Note{{ID: "n1"}}}, nil)
		}
		mockSvc.On("SubscribeFeed", mock.Anything, mock.MatchedBy(func(q service.FeedQuery) bool {
			return q.Search == "bio" && q.Subject == nil
		})).Return(iter.Seq2[*service.FeedResult, error](seq)).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/notes/stream?search=bio", nil), 5000)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		out := string(body)
		assert.Contains(t, out, "id: S1\nevent: snapshot\ndata: {")
		assert.Contains(t, out, "id: S2\nevent: snapshot\ndata: {")
		assert.Less(t, strings.Index(out, "id: S1"), strings.Index(out, "id: S2"))
	})

	t.Run("store failure ends the stream", func(t *testing.T) {
		seq := func(yield func(*service.FeedResult, error) bool) {
			yield(nil, fmt.Errorf("%w: list notes: timeout", model.ErrStore))
		}
		mockSvc.On("SubscribeFeed", mock.Anything, service.FeedQuery{}).
			Return(iter.Seq2[*service.FeedResult, error](seq)).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/notes/stream", nil), 5000)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)

		assert.Contains(t, string(body), "event: error\ndata: {\"code\":\"STORE_ERROR\"")
		assert.NotContains(t, string(body), "timeout")
	})

	mockSvc.AssertExpectations(t)
}

func TestStreamDashboard_EndsOnSignOut(t *testing.T) {
	revoked, err := auth.OpenBadgerRevocations("")
	require.NoError(t, err)
	defer revoked.Close()
	mgr, err := auth.NewManager("0123456789abcdef0123456789abcdef", "noteally", time.Hour, revoked)
	require.NoError(t, err)
	token, sess, err := mgr.Issue("U1", "alice@campus.edu")
	require.NoError(t, err)

	mockSvc := new(serviceMocks.MockNoteService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/dashboard/stream", middleware.RequireSession(mgr), StreamDashboard(mockSvc, mgr, 0))

	var streamCtx context.Context
	seq := func(yield func(*service.DashboardResult, error) bool) {
		if !yield(&service.DashboardResult{SnapshotID: "S1", Email: "alice@campus.edu"}, nil) {
			return
		}
		// Another request signs the session out while the stream is open.
		assert.NoError(t, mgr.SignOut(context.Background(), sess))
		<-streamCtx.Done()
	}
	mockSvc.On("SubscribeDashboard", mock.Anything, mock.MatchedBy(func(s *auth.Session) bool {
		return s.UserID == "U1" && s.TokenID == sess.TokenID
	})).Run(func(args mock.Arguments) {
		streamCtx = args.Get(0).(context.Context)
	}).Return(iter.Seq2[*service.DashboardResult, error](seq)).Once()

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	out := string(body)
	assert.Contains(t, out, "id: S1\nevent: snapshot")
	assert.Contains(t, out, "event: end\ndata: {\"reason\":\"session_ended\"}")
	mockSvc.AssertExpectations(t)

	// The revoked token no longer opens a stream.
	req = httptest.NewRequest(http.MethodGet, "/dashboard/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignOut(t *testing.T) {
	revoked, err := auth.OpenBadgerRevocations("")
	require.NoError(t, err)
	defer revoked.Close()
	mgr, err := auth.NewManager("0123456789abcdef0123456789abcdef", "noteally", time.Hour, revoked)
	require.NoError(t, err)
	token, _, err := mgr.Issue("U1", "alice@campus.edu")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post("/auth/signout", middleware.RequireSession(mgr), SignOut(mgr))

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", decodeError(t, resp).Error.Code)
}

type stubSessions struct{}

func (stubSessions) Verify(context.Context, string) (*auth.Session, error) { return nil, model.ErrAuth }
func (stubSessions) SignOut(context.Context, *auth.Session) error          { return nil }
func (stubSessions) OnSessionEnd(string, func()) func()                    { return func() {} }

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockNoteService)
	// Register all routes
	RegisterRoutes(app, nil, mockSvc, stubSessions{}, RouteOptions{})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("upload requires a session", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/notes", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "AUTH_REQUIRED", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stream route is not captured by :id", func(t *testing.T) {
		mockSvc.On("SubscribeFeed", mock.Anything, service.FeedQuery{}).
			Return(iter.Seq2[*service.FeedResult, error](func(func(*service.FeedResult, error) bool) {})).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notes/stream", nil), 5000)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		mockSvc.AssertExpectations(t)
	})
}
