package feed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"noteally/internal/logging"
)

// Channel is the PostgreSQL notification channel the notes trigger writes to.
const Channel = "notes_changed"

// notificationConn is the part of *pgx.Conn the listener uses.
type notificationConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Listener relays PostgreSQL NOTIFY events on Channel to a Hub, so writes made
// through any API instance reach every instance's subscribers.
type Listener struct {
	dsn            string
	hub            *Hub
	log            *logging.Logger
	reconnectDelay time.Duration
	connect        func(ctx context.Context, dsn string) (notificationConn, error)
}

// NewListener creates a Listener for the database at dsn.
func NewListener(dsn string, hub *Hub, log *logging.Logger, reconnectDelay time.Duration) *Listener {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &Listener{
		dsn:            dsn,
		hub:            hub,
		log:            log,
		reconnectDelay: reconnectDelay,
		connect: func(ctx context.Context, dsn string) (notificationConn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.log.Info("feed", "listener_stopped", map[string]any{"channel": Channel})
			return
		}
		l.log.Error("feed", "listener_failed", err, map[string]any{
			"channel":        Channel,
			"retry_after_ms": l.reconnectDelay.Milliseconds(),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return err
	}
	l.log.Info("feed", "listener_started", map[string]any{"channel": Channel})

	// Changes made while disconnected were never delivered.
	l.hub.Publish()

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		l.hub.Publish()
	}
}
