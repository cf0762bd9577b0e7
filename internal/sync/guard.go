package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
)

// SessionGuard gates stream resolution on target-service session validity.
type SessionGuard struct {
	target services.TargetService
	logger *log.Logger
}

// NewSessionGuard creates a SessionGuard for the given target service.
func NewSessionGuard(target services.TargetService, logger *log.Logger) *SessionGuard {
	return &SessionGuard{target: target, logger: logger}
}

// Ensure returns nil when the session is usable. An invalid session gets
// exactly one refresh attempt and a re-check; failure after that surfaces as
// [shared.ErrSessionExpired], a status condition rather than a crash.
func (g *SessionGuard) Ensure(ctx context.Context) error {
	if g.target.SessionValid(ctx) {
		return nil
	}

	g.logger.Warn("target session invalid, attempting refresh")
	if g.target.RefreshSession(ctx) && g.target.SessionValid(ctx) {
		g.logger.Info("target session refreshed")
		return nil
	}

	return fmt.Errorf("%w: refresh did not restore the session", shared.ErrSessionExpired)
}
