// Package service holds the account event consumers. The request-driven
// business logic lives in the CQRS packages:
//   - internal/command  AccountCommandService (writes, event publishing)
//   - internal/query    AccountQueryService, AuthQueryService (reads, tokens)
package service

import (
	"context"
	"log/slog"

	"github.com/useradmin/userapi/shared/events"
)

// AuditService writes every account lifecycle event to the audit log.
type AuditService struct {
	logger *slog.Logger
}

func NewAuditService(logger *slog.Logger) *AuditService {
	return &AuditService{logger: logger.With("component", "audit")}
}

// HandleAccountEvent is the Redis stream subscriber handler. A payload that
// cannot be decoded is returned as an error so the message stays pending.
func (s *AuditService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated, events.AccountDetailsUpdated, events.AccountPasswordChanged,
		events.AccountLoginChanged, events.AccountRevoked, events.AccountRestored, events.AccountDeleted:
	default:
		s.logger.WarnContext(ctx, "ignoring unknown event", "type", event.Type)
		return nil
	}

	data, err := events.DecodeAccountEvent(event)
	if err != nil {
		return err
	}

	attrs := []any{
		"type", event.Type,
		"at", event.Timestamp,
		"account_id", data.AccountID,
		"login", data.Login,
		"actor", data.Actor,
	}
	if data.PreviousLogin != "" {
		attrs = append(attrs, "previous_login", data.PreviousLogin)
	}
	s.logger.InfoContext(ctx, "account event", attrs...)
	return nil
}
