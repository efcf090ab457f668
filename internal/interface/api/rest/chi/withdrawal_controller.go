package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
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

type WithdrawalController struct {
	service interfaces.WithdrawalService
}

// NewWithdrawalController registers http.Handlers with additional options.
// Options.Middlewares guard the lifecycle transitions; creation and the
// reads serve the bot directly.
func NewWithdrawalController(service interfaces.WithdrawalService, options ChiServerOptions) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := WithdrawalController{
		service: service,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/withdrawals", c.Create)
		r.Post(options.BaseURL+"/withdrawals/{id}/cancel", c.Cancel)
		r.Get(options.BaseURL+"/withdrawals/{userID}", c.List)
		r.Get(options.BaseURL+"/withdrawals/{userID}/open", c.HasOpen)
	})

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/withdrawals/{id}/approve", c.Approve)
		r.Post(options.BaseURL+"/withdrawals/{id}/reject", c.Reject)
		r.Post(options.BaseURL+"/withdrawals/{id}/paid", c.MarkPaid)
	})
}

// Open a payout request (POST /api/v1/withdrawals HTTP/1.1).
func (c *WithdrawalController) Create(w http.ResponseWriter, r *http.Request) {
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	defer r.Body.Close()

	var payload request.CreateWithdrawal

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	method, err := entities.ParseWithdrawalMethod(payload.Method)
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidRequest, err))
		return
	}

	withdrawal, err := c.service.Create(r.Context(), &params.CreateWithdrawal{
		UserID:      payload.UserID,
		Method:      method,
		Destination: payload.Destination,
		Amount:      payload.Amount,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)

	if err = json.NewEncoder(w).Encode(response.NewGetWithdrawal(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// List user withdrawals (GET /api/v1/withdrawals/{userID} HTTP/1.1).
func (c *WithdrawalController) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	withdrawals, err := c.service.List(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	res := make([]*response.GetWithdrawal, len(withdrawals))
	for i, withdrawal := range withdrawals {
		res[i] = response.NewGetWithdrawal(withdrawal)
	}

	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Advisory open-request check
// (GET /api/v1/withdrawals/{userID}/open HTTP/1.1).
func (c *WithdrawalController) HasOpen(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	open, err := c.service.HasOpen(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.HasOpenWithdrawal{Open: open}); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Cancel a pending payout request on the requester's behalf
// (POST /api/v1/withdrawals/{id}/cancel HTTP/1.1).
func (c *WithdrawalController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := withdrawalIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	defer r.Body.Close()

	var payload request.CancelWithdrawal

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}
	if payload.UserID == 0 {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: required body param %q", errs.ErrInvalidRequest, "user_id"))
		return
	}

	withdrawal, err := c.service.Cancel(r.Context(), &params.Cancel{
		WithdrawalID: id,
		UserID:       payload.UserID,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetWithdrawal(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Approve a payout request
// (POST /api/v1/withdrawals/{id}/approve HTTP/1.1).
func (c *WithdrawalController) Approve(w http.ResponseWriter, r *http.Request) {
	admin, found := auth.FromContext(r.Context())
	if !found {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := withdrawalIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	defer r.Body.Close()

	var payload request.Approve

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	withdrawal, err := c.service.Approve(r.Context(), &params.Approve{
		WithdrawalID: id,
		AdminID:      admin.ID,
		Note:         payload.Note,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetWithdrawal(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Reject a payout request and refund the hold
// (POST /api/v1/withdrawals/{id}/reject HTTP/1.1).
func (c *WithdrawalController) Reject(w http.ResponseWriter, r *http.Request) {
	admin, found := auth.FromContext(r.Context())
	if !found {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := withdrawalIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	defer r.Body.Close()

	var payload request.Reject

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}
	if payload.Reason == "" {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: required body param %q", errs.ErrInvalidRequest, "reason"))
		return
	}

	withdrawal, err := c.service.Reject(r.Context(), &params.Reject{
		WithdrawalID: id,
		AdminID:      admin.ID,
		Reason:       payload.Reason,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetWithdrawal(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Finalize a manually sent payout
// (POST /api/v1/withdrawals/{id}/paid HTTP/1.1).
func (c *WithdrawalController) MarkPaid(w http.ResponseWriter, r *http.Request) {
	admin, found := auth.FromContext(r.Context())
	if !found {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := withdrawalIDParam(r)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	defer r.Body.Close()

	var payload request.MarkPaid

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	withdrawal, err := c.service.MarkPaid(r.Context(), &params.MarkPaid{
		WithdrawalID: id,
		AdminID:      admin.ID,
		ProofURL:     payload.ProofURL,
		Note:         payload.Note,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetWithdrawal(withdrawal)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *WithdrawalController) ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest) ||
		errors.Is(err, errs.ErrBelowMinimum):
		code = http.StatusBadRequest

	// Stats Payment Required (402).
	case errors.Is(err, errs.ErrNotEnoughFunds):
		code = http.StatusPaymentRequired

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound

	// Status Conflict (409).
	case errors.Is(err, errs.ErrOpenWithdrawal) ||
		errors.Is(err, errs.ErrDataConflict):
		code = http.StatusConflict

	// Status Unprocessable Entity (422).
	case errors.Is(err, errs.ErrInvalidTransition):
		code = http.StatusUnprocessableEntity
	}

	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func withdrawalIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid withdrawal id", errs.ErrInvalidRequest)
	}
	return id, nil
}
