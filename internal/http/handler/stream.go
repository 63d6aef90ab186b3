package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"noteally/internal/http/middleware"
	"noteally/internal/model"
	"noteally/internal/service"
)

var errSessionEnded = errors.New("session ended")

// SessionEnder lets a stream stop when its session is signed out.
type SessionEnder interface {
	OnSessionEnd(tokenID string, fn func()) (cancel func())
}

// frame is one server-sent event carrying a snapshot.
type frame struct {
	id   string
	data any
}

func framesOf[T any](seq iter.Seq2[T, error], idOf func(T) string) iter.Seq2[frame, error] {
	return func(yield func(frame, error) bool) {
		for v, err := range seq {
			if err != nil {
				yield(frame{}, err)
				return
			}
			if !yield(frame{id: idOf(v), data: v}, nil) {
				return
			}
		}
	}
}

// StreamNotes godoc
// @Summary Live public feed
// @Description Server-sent events. Each "snapshot" event carries the full filtered feed.
// @Tags notes
// @Produce text/event-stream
// @Param search query string false "substring of title or subject"
// @Param subject query string false "exact subject"
// @Success 200 {object} service.FeedResult
// @Router /notes/stream [get]
func StreamNotes(svc service.NoteService, keepAlive time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancelCause(context.WithoutCancel(c.UserContext()))
		seq := svc.SubscribeFeed(ctx, feedQuery(c))
		return stream(c, ctx, cancel, framesOf(seq, func(r *service.FeedResult) string { return r.SnapshotID }), keepAlive, nil)
	}
}

// StreamDashboard godoc
// @Summary Live dashboard
// @Description Server-sent events of the caller's notes and totals. Ends with an "end" event on sign-out or token expiry.
// @Tags dashboard
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} service.DashboardResult
// @Failure 401 {object} errorPayload
// @Router /dashboard/stream [get]
func StreamDashboard(svc service.NoteService, sessions SessionEnder, keepAlive time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		if sess == nil {
			return respondError(c, model.ErrAuth)
		}

		ctx, cancel := context.WithCancelCause(context.WithoutCancel(c.UserContext()))
		end := func() { cancel(errSessionEnded) }
		stopWatch := sessions.OnSessionEnd(sess.TokenID, end)
		release := stopWatch
		if !sess.ExpiresAt.IsZero() {
			expiry := time.AfterFunc(time.Until(sess.ExpiresAt), end)
			release = func() {
				stopWatch()
				expiry.Stop()
			}
		}

		seq := svc.SubscribeDashboard(ctx, sess)
		return stream(c, ctx, cancel, framesOf(seq, func(r *service.DashboardResult) string { return r.SnapshotID }), keepAlive, release)
	}
}

// stream switches the response to text/event-stream and pumps frames from a
// body stream writer, which fasthttp runs after the handler has returned.
func stream(c *fiber.Ctx, ctx context.Context, cancel context.CancelCauseFunc, frames iter.Seq2[frame, error], keepAlive time.Duration, release func()) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel(nil)
		if release != nil {
			defer release()
		}
		_ = pump(ctx, w, frames, keepAlive)
	}))
	return nil
}

// pump writes frames to w until the sequence ends, fails, the client goes
// away or ctx is cancelled. Between frames a keep-alive comment is written
// every keepAlive.
func pump(ctx context.Context, w *bufio.Writer, frames iter.Seq2[frame, error], keepAlive time.Duration) error {
	type result struct {
		f   frame
		err error
	}
	results := make(chan result)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		defer close(results)
		for f, err := range frames {
			select {
			case results <- result{f, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var tick <-chan time.Time
	if keepAlive > 0 {
		t := time.NewTicker(keepAlive)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return endStream(ctx, w)
		case r, ok := <-results:
			if !ok {
				// The sequence also ends when its context is cancelled.
				return endStream(ctx, w)
			}
			if r.err != nil {
				status, code := middleware.Classify(r.err)
				_ = writeFrame(w, "", "error", errorEnvelope{Code: code, Message: safeMessage(r.err, status)})
				_ = w.Flush()
				return r.err
			}
			if err := writeFrame(w, r.f.id, "snapshot", r.f.data); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		case <-tick:
			if _, err := w.WriteString(": keepalive\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

// endStream tells the client why the stream is closing when its session ended.
func endStream(ctx context.Context, w *bufio.Writer) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errSessionEnded) {
		_ = writeFrame(w, "", "end", fiber.Map{"reason": "session_ended"})
		_ = w.Flush()
	}
	return cause
}

func writeFrame(w *bufio.Writer, id, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
