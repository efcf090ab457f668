package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/header"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/request"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/response"
	"github.com/ovozbot/finance-service/internal/models/errs"
)

type ReferralController struct {
	service interfaces.ReferralService
}

// NewReferralController registers http.Handlers with additional options.
func NewReferralController(service interfaces.ReferralService, options ChiServerOptions) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := ReferralController{
		service: service,
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/referrals/grant", c.Grant)
		r.Get(options.BaseURL+"/referrals/config", c.Config)
		r.Get(options.BaseURL+"/referrals/stats/{userID}", c.Stats)
	})
}

// Issue a referral bonus (POST /api/v1/referrals/grant HTTP/1.1).
// Idempotent per (referrer, referred) pair.
func (c *ReferralController) Grant(w http.ResponseWriter, r *http.Request) {
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	defer r.Body.Close()

	var payload request.Grant

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	result, err := c.service.Grant(r.Context(), payload.ReferrerID, payload.ReferredID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(result); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Referral program config (GET /api/v1/referrals/config HTTP/1.1).
func (c *ReferralController) Config(w http.ResponseWriter, r *http.Request) {
	settings, err := c.service.Config(r.Context())
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetReferralConfig(settings)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Referrer aggregates (GET /api/v1/referrals/stats/{userID} HTTP/1.1).
func (c *ReferralController) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid user id", errs.ErrInvalidRequest))
		return
	}

	stats, err := c.service.Stats(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(stats); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *ReferralController) ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest) ||
		errors.Is(err, errs.ErrSelfReferral):
		code = http.StatusBadRequest

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
