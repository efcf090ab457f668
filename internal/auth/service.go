package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/jwt"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates operator accounts and guards the privileged
// API surface.
type Service struct {
	repo   Repository
	logger logger.Logger
	config *config.Config
}

func NewService(repo Repository, logger logger.Logger, config *config.Config) (*Service, error) {
	if repo == nil {
		return nil, errors.New("nil dependency: repository")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}
	return &Service{repo: repo, logger: logger, config: config}, nil
}

// LoginParams defines parameters for Login.
type LoginParams struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Authentication (POST /api/v1/auth/login).
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var params LoginParams

	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidRequest, err))
		return
	}
	if params.Login == "" {
		ErrorHandlerFunc(w, r, fmt.Errorf("%w: required body param %q", errs.ErrInvalidRequest, "login"))
		return
	}
	if params.Password == "" {
		ErrorHandlerFunc(w, r, fmt.Errorf("%w: required body param %q", errs.ErrInvalidRequest, "password"))
		return
	}

	// Retrieve admin from the database with provided login.
	a, err := s.repo.GetAdminByLogin(r.Context(), params.Login)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			ErrorHandlerFunc(w, r, fmt.Errorf("%w: admin with login %q not found",
				errs.ErrInvalidCredentials, params.Login))
			return
		}
		ErrorHandlerFunc(w, r, fmt.Errorf("get admin %q: %w", params.Login, err))
		return
	}

	// Compare stored and provided passwords.
	err = bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(params.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			ErrorHandlerFunc(w, r, fmt.Errorf("%w: password", errs.ErrInvalidCredentials))
			return
		}
		ErrorHandlerFunc(w, r, fmt.Errorf("compare passwords: %w", err))
		return
	}

	// Build authentication token.
	authToken, err := jwt.BuildString(a.ID, s.config.JWT.SigningKey, s.config.JWT.Expiration)
	if err != nil {
		ErrorHandlerFunc(w, r, fmt.Errorf("build token: %w", err))
		return
	}

	// Set the "Authorization" cookie with the JWT authentication token.
	http.SetCookie(w, &http.Cookie{
		Name:     "Authorization",
		Value:    authToken,
		Expires:  time.Now().Add(s.config.JWT.Expiration),
		HttpOnly: true,
	})

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(map[string]string{"token": authToken}); err != nil {
		s.logger.Errorf("encode login response: %s", err)
	}
}

// Authorization middleware. Accepts the token from either the
// Authorization header or the Authorization cookie.
func (s *Service) Middleware(next http.Handler) http.Handler {
	f := func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			authCookie, err := r.Cookie("Authorization")
			if err != nil {
				if errors.Is(err, http.ErrNoCookie) {
					ErrorHandlerFunc(w, r, fmt.Errorf("authorization token: %w", errs.ErrNotFound))
					return
				}
				ErrorHandlerFunc(w, r, fmt.Errorf("authorization token: %w", err))
				return
			}
			token = authCookie.Value
		}

		adminID, err := jwt.GetAdminID(token, s.config.JWT.SigningKey)
		if err != nil {
			ErrorHandlerFunc(w, r, fmt.Errorf("%w: parse token: %s", errs.ErrInvalidCredentials, err))
			return
		}

		a, err := s.repo.GetAdminByID(r.Context(), adminID)
		if err != nil {
			ErrorHandlerFunc(w, r, fmt.Errorf("get admin %d: %w", adminID, err))
			return
		}

		r = r.WithContext(NewContext(r.Context(), a))

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(f)
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request.
	case errors.Is(err, errs.ErrInvalidRequest) ||
		errors.Is(err, io.EOF):
		code = http.StatusBadRequest

	// Status Unauthorized.
	case errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, errs.ErrInvalidCredentials):
		code = http.StatusUnauthorized
	}

	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
