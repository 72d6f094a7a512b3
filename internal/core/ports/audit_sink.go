package ports

import (
	"context"

	"github.com/examstack/examgate/internal/core/domain"
)

// AuditSink records session lifecycle events. Recording is best effort:
// callers log sink failures and move on.
type AuditSink interface {
	Record(ctx context.Context, event domain.SessionEvent) error
}

// NopAuditSink discards every event. Used when no audit backend is
// configured.
type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, domain.SessionEvent) error { return nil }
