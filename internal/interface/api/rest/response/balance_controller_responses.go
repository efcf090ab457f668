package response

import (
	"time"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

type GetBalance struct {
	UserID            int64 `json:"user_id"`
	Balance           int64 `json:"balance"`
	HasOpenWithdrawal bool  `json:"has_open_withdrawal"`
}

func NewGetBalance(userID, balance int64, hasOpen bool) GetBalance {
	return GetBalance{UserID: userID, Balance: balance, HasOpenWithdrawal: hasOpen}
}

type GetTransaction struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	RefID     *int64    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGetTransaction(e *entities.Transaction) *GetTransaction {
	return &GetTransaction{
		ID:        e.ID,
		Type:      string(e.Type),
		Amount:    e.Amount,
		RefID:     e.RefID,
		CreatedAt: e.CreatedAt,
	}
}

type NewBalance struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}
