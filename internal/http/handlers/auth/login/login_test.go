package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	args := m.Called(ctx, email, rawPassword)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	logger := newNoopLogger()

	anaUser := &models.User{
		UID:   "uid-ana",
		Email: "ana@x.com",
		Name:  "Ana",
		Role:  models.RoleUser,
	}

	tests := []struct {
		name           string
		requestBody    any
		mockUser       *models.User
		mockToken      string
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name: "valid login",
			requestBody: Request{
				Email:    "ana@x.com",
				Password: "secret1",
			},
			mockUser:       anaUser,
			mockToken:      "signed.jwt.token",
			wantStatusCode: http.StatusOK,
		},
		{
			name: "wrong password",
			requestBody: Request{
				Email:    "ana@x.com",
				Password: "wrongpass",
			},
			mockErr:        apperr.ErrInvalidCredentials,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid email or password",
		},
		{
			name: "unknown email gets the same error",
			requestBody: Request{
				Email:    "ghost@x.com",
				Password: "secret1",
			},
			mockErr:        apperr.ErrInvalidCredentials,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid email or password",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name: "validation error - missing email",
			requestBody: Request{
				Password: "secret1",
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email is a required field",
		},
		{
			name: "validation error - password over the bcrypt limit",
			requestBody: Request{
				Email:    "ana@x.com",
				Password: strings.Repeat("a", 73),
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			handler := New(logger, serviceMock)

			if tt.mockUser != nil || tt.mockErr != nil {
				reqBody := tt.requestBody.(Request)
				serviceMock.On("Login", mock.Anything, reqBody.Email, reqBody.Password).
					Return(tt.mockUser, tt.mockToken, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				assert.Equal(t, false, got["success"])
				assert.Equal(t, tt.wantError, got["error"])
				assert.Empty(t, rec.Result().Cookies())
			} else {
				assert.Equal(t, true, got["success"])
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.mockToken, data["token"])

				cookies := rec.Result().Cookies()
				if assert.Len(t, cookies, 1) {
					assert.Equal(t, middlewarectx.SessionCookieName, cookies[0].Name)
					assert.Equal(t, tt.mockToken, cookies[0].Value)
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
