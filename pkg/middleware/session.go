package middleware

import (
	"context"
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/config"
	"github.com/verdantmetrics/lca-engine/pkg/services"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionIDHeader echoes the resolved session id on every response so
// clients that ignore cookies (curl, spreadsheets fetching the export URL)
// can round-trip it via the ?session query parameter instead.
const SessionIDHeader = "X-Session-Id"

// SessionQueryParam is the query parameter carrying the session token.
const SessionQueryParam = "session"

// SessionKeyID is the session cookie value key holding the session id.
const SessionKeyID = "id"

// WithSessionID returns a context carrying the resolved session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext extracts the resolved session id from the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// SessionResolver resolves the client's session token into a session id on
// the request context. The query parameter wins over the cookie so a shared
// URL always addresses the document it names.
type SessionResolver struct {
	store    *sessions.CookieStore
	cookie   string
	resolver services.SessionService
	logger   *zap.Logger
}

// NewSessionResolver builds the session middleware. The cookie secret is
// SHA-256 hashed to derive the signing key and must be consistent across
// restarts.
func NewSessionResolver(cfg *config.Config, resolver services.SessionService, logger *zap.Logger) *SessionResolver {
	key := sha256.Sum256([]byte(cfg.Session.Secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAgeDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionResolver{
		store:    store,
		cookie:   cfg.Session.CookieName,
		resolver: resolver,
		logger:   logger,
	}
}

// Resolve wraps a handler, placing the resolved session id on the request
// context, refreshing the session cookie, and echoing the id in the
// response headers.
func (m *SessionResolver) Resolve(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, isNew := m.ResolveRequest(w, r)

		if isNew {
			m.logger.Debug("New session started",
				zap.String("session_id", sessionID),
				zap.String("path", r.URL.Path))
		}

		next(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	}
}

// ResolveRequest resolves the request's session token (query parameter,
// then cookie), refreshes the cookie, and sets the echo header. It is used
// directly by the session endpoint, which needs the isNew flag.
func (m *SessionResolver) ResolveRequest(w http.ResponseWriter, r *http.Request) (sessionID string, isNew bool) {
	token := r.URL.Query().Get(SessionQueryParam)

	session, err := m.store.Get(r, m.cookie)
	if err != nil {
		// A cookie signed with a stale secret is treated as absent.
		m.logger.Debug("Discarding unreadable session cookie", zap.Error(err))
		session, _ = m.store.New(r, m.cookie)
	}

	if token == "" {
		if v, ok := session.Values[SessionKeyID].(string); ok {
			token = v
		}
	}

	sessionID, isNew = m.resolver.Resolve(token)

	session.Values[SessionKeyID] = sessionID
	if err := session.Save(r, w); err != nil {
		m.logger.Warn("Failed to save session cookie", zap.Error(err))
	}
	w.Header().Set(SessionIDHeader, sessionID)

	return sessionID, isNew
}
