package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// SecurityService handles queued security events: it writes the audit record
// and logs the incident. Token reuse is the one failure that cascades beyond
// a single request, so it must leave a durable trace.
type SecurityService struct {
	events ports.SecurityEventRepository
	log    zerolog.Logger
}

func NewSecurityService(events ports.SecurityEventRepository, log zerolog.Logger) *SecurityService {
	return &SecurityService{events: events, log: log}
}

// Process implements ports.SecurityEventService.
func (s *SecurityService) Process(ctx context.Context, event domain.SecurityEvent) error {
	s.log.Error().
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("detail", event.Detail).
		Time("occurred_at", event.OccurredAt).
		Msg("security event")

	if err := s.events.Record(ctx, &event); err != nil {
		return fmt.Errorf("record security event: %w", err)
	}
	return nil
}
