package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/application/params"
	"github.com/ovozbot/finance-service/internal/auth"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/header"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/request"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/response"
	"github.com/ovozbot/finance-service/internal/models/errs"
)

type BalanceController struct {
	balance     interfaces.BalanceService
	withdrawals interfaces.WithdrawalService
}

// NewBalanceController registers http.Handlers with additional options.
// Options.Middlewares guard the mutating admin endpoints; reads are
// served to the bot without them.
func NewBalanceController(
	balance interfaces.BalanceService,
	withdrawals interfaces.WithdrawalService,
	options ChiServerOptions,
) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := BalanceController{
		balance:     balance,
		withdrawals: withdrawals,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/balance/{userID}", c.GetBalance)
		r.Get(options.BaseURL+"/balance/{userID}/history", c.GetHistory)
	})

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Get(options.BaseURL+"/balance/{userID}/reconcile", c.Reconcile)
		r.Post(options.BaseURL+"/balance/add", c.Add)
		r.Post(options.BaseURL+"/balance/deduct", c.Deduct)
		r.Post(options.BaseURL+"/balance/adjust", c.Adjust)
	})
}

// Get user balance (GET /api/v1/balance/{userID} HTTP/1.1).
func (c *BalanceController) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	balance, err := c.balance.GetBalance(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	open, err := c.withdrawals.HasOpen(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := response.NewGetBalance(userID, balance, open)

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Get ledger history (GET /api/v1/balance/{userID}/history HTTP/1.1).
func (c *BalanceController) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	limit, offset := pageParams(r)

	transactions, err := c.balance.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := make([]*response.GetTransaction, len(transactions))
	for i, t := range transactions {
		res[i] = response.NewGetTransaction(t)
	}

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Reconcile balance against the ledger
// (GET /api/v1/balance/{userID}/reconcile HTTP/1.1).
func (c *BalanceController) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	rec, err := c.balance.Reconcile(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(rec); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Credit an account (POST /api/v1/balance/add HTTP/1.1).
func (c *BalanceController) Add(w http.ResponseWriter, r *http.Request) {
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	defer r.Body.Close()

	var payload request.Credit

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	balance, err := c.balance.Credit(r.Context(), &params.Credit{
		UserID: payload.UserID,
		Amount: payload.Amount,
		Type:   entities.TransactionType(payload.Type),
		RefID:  payload.RefID,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := response.NewBalance{UserID: payload.UserID, Balance: balance}

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Debit an account (POST /api/v1/balance/deduct HTTP/1.1).
func (c *BalanceController) Deduct(w http.ResponseWriter, r *http.Request) {
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	defer r.Body.Close()

	var payload request.Debit

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	balance, err := c.balance.Debit(r.Context(), &params.Debit{
		UserID: payload.UserID,
		Amount: payload.Amount,
		Type:   entities.TransactionType(payload.Type),
		RefID:  payload.RefID,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := response.NewBalance{UserID: payload.UserID, Balance: balance}

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Correct an account (POST /api/v1/balance/adjust HTTP/1.1).
// The signed amount and the acting admin are both recorded in adminlogs.
func (c *BalanceController) Adjust(w http.ResponseWriter, r *http.Request) {
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	admin, found := auth.FromContext(r.Context())
	if !found {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	defer r.Body.Close()

	var payload request.Adjust

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	balance, err := c.balance.Adjust(r.Context(), &params.Adjust{
		UserID:  payload.UserID,
		Amount:  payload.Amount,
		Type:    entities.ADJUSTMENT,
		RefID:   payload.RefID,
		Reason:  payload.Reason,
		AdminID: &admin.ID,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := response.NewBalance{UserID: payload.UserID, Balance: balance}

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *BalanceController) ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest):
		code = http.StatusBadRequest

	// Stats Payment Required (402).
	case errors.Is(err, errs.ErrNotEnoughFunds):
		code = http.StatusPaymentRequired

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound

	// Status Conflict (409).
	case errors.Is(err, errs.ErrDataConflict):
		code = http.StatusConflict
	}

	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userIDParam(r *http.Request) (int64, error) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user id", errs.ErrInvalidRequest)
	}
	return userID, nil
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
