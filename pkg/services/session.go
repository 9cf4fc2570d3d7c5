package services

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService resolves client-visible session tokens to session ids.
type SessionService interface {
	// Resolve maps a client token to a session id. An empty token mints a
	// fresh id and reports isNew=true; a non-empty token is used verbatim.
	// Tokens carry no ownership proof - whoever presents a session id owns
	// that document.
	Resolve(token string) (sessionID string, isNew bool)
}

type sessionService struct {
	logger *zap.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(logger *zap.Logger) SessionService {
	return &sessionService{logger: logger}
}

func (s *sessionService) Resolve(token string) (string, bool) {
	if token != "" {
		return token, false
	}

	sessionID := uuid.NewString()
	s.logger.Debug("Minted new session", zap.String("session_id", sessionID))
	return sessionID, true
}
