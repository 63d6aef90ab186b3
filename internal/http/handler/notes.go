package handler

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"noteally/internal/http/middleware"
	"noteally/internal/model"
	"noteally/internal/service"
)

// feedQuery reads search and subject from the query string. subject is only
// applied when the parameter is present, so ?subject= selects notes without one.
// Values are copied out of the request buffer since streams outlive the handler.
func feedQuery(c *fiber.Ctx) service.FeedQuery {
	q := service.FeedQuery{Search: strings.Clone(c.Query("search"))}
	if c.Context().QueryArgs().Has("subject") {
		subject := strings.Clone(c.Query("subject"))
		q.Subject = &subject
	}
	return q
}

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListNotes godoc
// @Summary Public note feed
// @Description Newest first. search matches title or subject case-insensitively; subject must match exactly.
// @Tags notes
// @Produce json
// @Param search query string false "substring of title or subject"
// @Param subject query string false "exact subject"
// @Success 200 {object} service.FeedResult
// @Failure 502 {object} errorPayload
// @Router /notes [get]
func ListNotes(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Feed(c.UserContext(), feedQuery(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetNote godoc
// @Summary Get a note
// @Tags notes
// @Produce json
// @Param id path string true "note id"
// @Success 200 {object} model.Note
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id} [get]
func GetNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		note, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(note)
	}
}

// UploadNote godoc
// @Summary Upload a PDF note
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "title"
// @Param subject formData string true "subject"
// @Param file formData file true "PDF file"
// @Success 201 {object} model.Note
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /notes [post]
func UploadNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.UploadInput{
			Title:   c.FormValue("title"),
			Subject: c.FormValue("subject"),
		}

		// A missing file is reported by the service with the other required fields.
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			in.File = f
			in.Filename = fh.Filename
			in.ContentType = fh.Header.Get("Content-Type")
			in.Size = fh.Size
		}

		note, err := svc.Upload(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(note)
	}
}

// ToggleLike godoc
// @Summary Like or unlike a note
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path string true "note id"
// @Success 200 {object} model.Note
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id}/like [post]
func ToggleLike(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		note, err := svc.ToggleLike(c.UserContext(), middleware.SessionFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(note)
	}
}

// RecordView godoc
// @Summary Count a view of a note
// @Tags engagement
// @Produce json
// @Param id path string true "note id"
// @Success 200 {object} model.Note
// @Failure 404 {object} errorPayload
// @Router /notes/{id}/view [post]
func RecordView(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		note, err := svc.RecordView(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(note)
	}
}

// DeleteNote godoc
// @Summary Delete one of your notes
// @Description Requires confirm=true. The stored PDF is not removed.
// @Tags notes
// @Security BearerAuth
// @Param id path string true "note id"
// @Param confirm query bool true "must be true"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id} [delete]
func DeleteNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		confirmed, _ := strconv.ParseBool(c.Query("confirm"))
		if err := svc.Delete(c.UserContext(), middleware.SessionFrom(c), id, confirmed); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadFile godoc
// @Summary Download a note's PDF
// @Tags files
// @Produce application/pdf
// @Param key path string true "blob key"
// @Success 200 {file} file
// @Success 307
// @Failure 404 {object} errorPayload
// @Router /files/{key} [get]
func DownloadFile(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return respondError(c, fmt.Errorf("%w: invalid file path", model.ErrValidation))
		}
		dl, err := svc.Download(c.UserContext(), key)
		if err != nil {
			return respondError(c, err)
		}
		if dl.RedirectURL != "" {
			return c.Redirect(dl.RedirectURL, fiber.StatusTemporaryRedirect)
		}

		ct := dl.Info.ContentType
		if ct == "" {
			ct = service.PDFContentType
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", path.Base(key)))

		size := int(dl.Info.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes the stream once the body is written.
		return c.SendStream(dl.Body, size)
	}
}
