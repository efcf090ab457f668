package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockRepository struct {
	admins []*entities.Admin
}

func (m *mockRepository) GetAdminByID(_ context.Context, adminID int64) (*entities.Admin, error) {
	for _, a := range m.admins {
		if a.ID == adminID {
			return a, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockRepository) GetAdminByLogin(_ context.Context, login string) (*entities.Admin, error) {
	for _, a := range m.admins {
		if a.Login == login {
			return a, nil
		}
	}
	return nil, errs.ErrNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.SigningKey = "test-signing-key"
	cfg.JWT.Expiration = time.Hour

	repo := &mockRepository{admins: []*entities.Admin{
		{ID: 1, Login: "operator", Password: string(hash)},
	}}

	service, err := NewService(repo, logger.NewNop(), cfg)
	require.NoError(t, err)

	return service
}

func TestService_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{
			name:         "positive test #1",
			body:         `{"login":"operator","password":"correct horse"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "wrong password",
			body:         `{"login":"operator","password":"battery staple"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "unknown login",
			body:         `{"login":"nobody","password":"correct horse"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "missing login",
			body:         `{"password":"correct horse"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing password",
			body:         `{"login":"operator"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "empty body",
			body:         "",
			expectedCode: http.StatusBadRequest,
		},
	}

	service := newTestService(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			service.Login(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode != http.StatusOK {
				return
			}

			var resp map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.True(t, strings.HasPrefix(resp["token"], "Bearer "))

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "Authorization", cookies[0].Name)
			assert.Equal(t, resp["token"], cookies[0].Value)
		})
	}
}

func loginToken(t *testing.T, service *Service) string {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"login":"operator","password":"correct horse"}`))
	w := httptest.NewRecorder()

	service.Login(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	return resp["token"]
}

func TestService_Middleware(t *testing.T) {
	service := newTestService(t)
	token := loginToken(t, service)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, "operator", a.Login)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name         string
		prepare      func(r *http.Request)
		expectedCode int
	}{
		{
			name:         "token in header",
			prepare:      func(r *http.Request) { r.Header.Set("Authorization", token) },
			expectedCode: http.StatusNoContent,
		},
		{
			name: "token in cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "Authorization", Value: token})
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "no token",
			prepare:      func(r *http.Request) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "malformed token",
			prepare:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.token") },
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/withdrawals/1", nil)
			tt.prepare(r)
			w := httptest.NewRecorder()

			service.Middleware(next).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
