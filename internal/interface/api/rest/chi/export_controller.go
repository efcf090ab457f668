package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/auth"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/header"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/request"
	"github.com/ovozbot/finance-service/internal/interface/api/rest/response"
	"github.com/ovozbot/finance-service/internal/models/errs"
)

type ExportController struct {
	service interfaces.ExportService
}

// NewExportController registers http.Handlers with additional options.
// All export endpoints are privileged.
func NewExportController(service interfaces.ExportService, options ChiServerOptions) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := ExportController{
		service: service,
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/exports", c.Create)
		r.Get(options.BaseURL+"/exports/{id}", c.Get)
	})
}

// Queue an export job (POST /api/v1/exports HTTP/1.1).
func (c *ExportController) Create(w http.ResponseWriter, r *http.Request) {
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

	var payload request.CreateExport

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	kind, err := entities.ParseExportKind(payload.Kind)
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidRequest, err))
		return
	}

	job, err := c.service.Enqueue(r.Context(), admin.ID, kind)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)

	if err = json.NewEncoder(w).Encode(response.NewGetExportJob(job)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Poll an export job (GET /api/v1/exports/{id} HTTP/1.1).
func (c *ExportController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid export id", errs.ErrInvalidRequest))
		return
	}

	job, err := c.service.GetJob(r.Context(), id)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	if err = json.NewEncoder(w).Encode(response.NewGetExportJob(job)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *ExportController) ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest):
		code = http.StatusBadRequest

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	}

	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
