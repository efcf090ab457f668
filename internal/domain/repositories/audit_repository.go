package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// AuditRepository appends adminlogs rows. Append only; nothing here ever
// updates or deletes.
type AuditRepository interface {
	SaveEntry(ctx context.Context, e *entities.AuditEntry) error
}
