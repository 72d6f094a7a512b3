package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

const auditCollection = "session_events"

// AuditRepository persists session lifecycle events for later inspection.
// Best-effort by contract: callers log failures and move on.
type AuditRepository struct {
	coll *mongo.Collection
}

var _ ports.AuditSink = (*AuditRepository)(nil)

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type sessionEventDoc struct {
	Type     string `bson:"type"`
	Username string `bson:"username,omitempty"`
	Role     string `bson:"role,omitempty"`
	Path     string `bson:"path,omitempty"`
	Reason   string `bson:"reason,omitempty"`
	At       int64  `bson:"at"`
}

func (r *AuditRepository) Record(ctx context.Context, event domain.SessionEvent) error {
	doc := sessionEventDoc{
		Type:     string(event.Type),
		Username: event.Username,
		Role:     string(event.Role),
		Path:     event.Path,
		Reason:   event.Reason,
		At:       event.At.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}
