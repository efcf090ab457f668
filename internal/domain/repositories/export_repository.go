package repositories

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// ExportRepository stores CSV export jobs processed by the background
// worker.
type ExportRepository interface {
	CreateJob(ctx context.Context, adminID int64, kind entities.ExportKind) (*entities.ExportJob, error)

	GetJob(ctx context.Context, id int64) (*entities.ExportJob, error)

	// ClaimNextJob atomically moves the oldest PENDING job to RUNNING
	// and returns it, or errs.ErrNotFound when the queue is empty.
	ClaimNextJob(ctx context.Context) (*entities.ExportJob, error)

	// FinishJob records the terminal status of a claimed job.
	FinishJob(ctx context.Context, id int64, status entities.ExportStatus, filePath, errMsg string) error
}
