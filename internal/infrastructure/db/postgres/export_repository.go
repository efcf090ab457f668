package postgres

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

type ExportRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewExportRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*ExportRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &ExportRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.ExportRepository = (*ExportRepository)(nil)

func (r *ExportRepository) CreateJob(ctx context.Context, adminID int64, kind entities.ExportKind) (*entities.ExportJob, error) {
	const query = `
		INSERT INTO exportjobs (admin_id, kind, status)
		VALUES ($1, $2, 'PENDING')
			RETURNING id, created_at;
	`

	job := &entities.ExportJob{
		AdminID: adminID,
		Kind:    kind,
		Status:  entities.ExportPending,
	}

	err := r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, query, adminID, kind).
		Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *ExportRepository) GetJob(ctx context.Context, id int64) (*entities.ExportJob, error) {
	const query = `
		SELECT id, admin_id, kind, status, file_path, error, created_at
		FROM exportjobs
		WHERE id = $1;
	`

	return r.scanJob(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, id))
}

// ClaimNextJob grabs the oldest pending job and flips it to RUNNING.
// SKIP LOCKED lets several workers drain the queue without stepping on
// each other.
func (r *ExportRepository) ClaimNextJob(ctx context.Context) (*entities.ExportJob, error) {
	const query = `
		UPDATE exportjobs SET
			status = 'RUNNING'
		WHERE id = (
			SELECT id FROM exportjobs
			WHERE status = 'PENDING'
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
			RETURNING id, admin_id, kind, status, file_path, error, created_at;
	`

	return r.scanJob(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query))
}

func (r *ExportRepository) FinishJob(ctx context.Context, id int64, status entities.ExportStatus, filePath, errMsg string) error {
	const query = `
		UPDATE exportjobs SET
			status = $1,
			file_path = $2,
			error = $3
		WHERE id = $4;
	`

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query, status, filePath, errMsg, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *ExportRepository) scanJob(row rowScanner) (*entities.ExportJob, error) {
	job := new(entities.ExportJob)

	var (
		filePath sql.NullString
		errMsg   sql.NullString
	)

	err := row.Scan(
		&job.ID,
		&job.AdminID,
		&job.Kind,
		&job.Status,
		&filePath,
		&errMsg,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	job.FilePath = filePath.String
	job.Error = errMsg.String

	return job, nil
}
