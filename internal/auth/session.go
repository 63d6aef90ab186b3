// Package auth verifies bearer tokens into sessions and ends sessions on sign-out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"noteally/internal/model"
)

// Session is the identity attached to a request. A nil *Session means signed out.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserID returns the session's user id, or "" for a nil session.
func UserID(s *Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens and tracks sign-outs.
type Manager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time

	mu       sync.Mutex
	watchers map[string]map[uint64]func()
	nextID   uint64
}

// NewManager creates a Manager. secret must not be empty.
func NewManager(secret, issuer string, ttl time.Duration, revoked RevocationStore) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	if revoked == nil {
		return nil, errors.New("revocation store is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		revoked:  revoked,
		now:      time.Now,
		watchers: make(map[string]map[uint64]func()),
	}, nil
}

// Issue mints a token for userID.
func (m *Manager) Issue(userID, email string) (string, *Session, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	now := m.now()
	sess := &Session{
		UserID:    userID,
		Email:     email,
		TokenID:   ulid.Make().String(),
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, sess, nil
}

// Verify parses token and returns its session. Invalid, expired and revoked
// tokens all yield model.ErrAuth.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, model.ErrAuth
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrAuth, err)
	}
	if c.Subject == "" || c.ID == "" {
		return nil, fmt.Errorf("%w: token is missing subject or id", model.ErrAuth)
	}

	revoked, err := m.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: check revocation: %w", model.ErrStore, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session signed out", model.ErrAuth)
	}

	return &Session{
		UserID:    c.Subject,
		Email:     c.Email,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session's token until it would have expired anyway and
// runs every callback registered with OnSessionEnd for it.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return model.ErrAuth
	}
	if err := m.revoked.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
		return fmt.Errorf("%w: revoke session: %w", model.ErrStore, err)
	}

	m.mu.Lock()
	fns := m.watchers[s.TokenID]
	delete(m.watchers, s.TokenID)
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// OnSessionEnd registers fn to run once when the session with tokenID is
// signed out. If the token is already revoked, or the revocation list cannot
// be read, fn runs before OnSessionEnd returns. The returned cancel func
// unregisters it.
func (m *Manager) OnSessionEnd(tokenID string, fn func()) (cancel func()) {
	var once sync.Once
	end := func() { once.Do(fn) }

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.watchers[tokenID] == nil {
		m.watchers[tokenID] = make(map[uint64]func())
	}
	m.watchers[tokenID][id] = end
	m.mu.Unlock()

	cancel = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if w := m.watchers[tokenID]; w != nil {
			delete(w, id)
			if len(w) == 0 {
				delete(m.watchers, tokenID)
			}
		}
	}

	// SignOut revokes before it collects watchers, so a sign-out that raced
	// the registration above is visible here.
	if revoked, err := m.revoked.IsRevoked(context.Background(), tokenID); revoked || err != nil {
		cancel()
		end()
	}
	return cancel
}
