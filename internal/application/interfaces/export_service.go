package interfaces

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// ExportService queues CSV export jobs for the background worker.
type ExportService interface {
	Enqueue(ctx context.Context, adminID int64, kind entities.ExportKind) (*entities.ExportJob, error)
	GetJob(ctx context.Context, id int64) (*entities.ExportJob, error)
}
