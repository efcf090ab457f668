package auth

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
)

type Repository interface {
	GetAdminByID(ctx context.Context, adminID int64) (*entities.Admin, error)
	GetAdminByLogin(ctx context.Context, login string) (*entities.Admin, error)
}

type Repo struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*Repo, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &Repo{db: db, getter: getter, logger: logger}, nil
}

var _ Repository = (*Repo)(nil)

func (r *Repo) GetAdminByID(ctx context.Context, adminID int64) (*entities.Admin, error) {
	const query = "SELECT id, login, password, created_at FROM admins WHERE id = $1"

	a := new(entities.Admin)

	err := r.db.QueryRowContext(ctx, query, adminID).Scan(
		&a.ID,
		&a.Login,
		&a.Password,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *Repo) GetAdminByLogin(ctx context.Context, login string) (*entities.Admin, error) {
	const query = "SELECT id, login, password, created_at FROM admins WHERE login = $1"

	a := new(entities.Admin)

	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&a.ID,
		&a.Login,
		&a.Password,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return a, nil
}
