package response

import (
	"time"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

type GetWithdrawal struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      int64     `json:"amount"`
	Method      string    `json:"method"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	AdminNote   string    `json:"admin_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewGetWithdrawal(e *entities.Withdrawal) *GetWithdrawal {
	return &GetWithdrawal{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Method:      string(e.Method),
		Destination: e.DestinationMasked,
		Status:      string(e.Status),
		AdminNote:   e.AdminNote,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type HasOpenWithdrawal struct {
	Open bool `json:"open"`
}

type GetExportJob struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	FilePath  string    `json:"file_path,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGetExportJob(e *entities.ExportJob) *GetExportJob {
	return &GetExportJob{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Status:    string(e.Status),
		FilePath:  e.FilePath,
		Error:     e.Error,
		CreatedAt: e.CreatedAt,
	}
}
