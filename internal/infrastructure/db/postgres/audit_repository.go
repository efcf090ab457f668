package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/pkg/logger"
)

type AuditRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewAuditRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*AuditRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &AuditRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) SaveEntry(ctx context.Context, e *entities.AuditEntry) error {
	const query = `
		INSERT INTO adminlogs (admin_id, action, payload_json)
		VALUES ($1, $2, $3)
			RETURNING id, created_at;
	`

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	err = r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, query, e.AdminID, e.Action, payload).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}
