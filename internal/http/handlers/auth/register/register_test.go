package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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

func (m *ServiceMock) Register(ctx context.Context, name, email, rawPassword string) (*models.User, string, error) {
	args := m.Called(ctx, name, email, rawPassword)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	logger := newNoopLogger()

	anaUser := &models.User{
		UID:   "uid-ana",
		Email: "ana@x.com",
		Name:  "Ana",
		Role:  models.RoleUser,
		Subscription: models.Subscription{
			Status: models.SubscriptionNone,
		},
	}

	tests := []struct {
		name           string
		requestBody    any
		mockUser       *models.User
		mockToken      string
		mockErr        error
		wantStatusCode int
		wantError      string
		wantToken      string
	}{
		{
			name: "valid registration",
			requestBody: Request{
				Name:     "Ana",
				Email:    "ana@x.com",
				Password: "secret1",
			},
			mockUser:       anaUser,
			mockToken:      "signed.jwt.token",
			wantStatusCode: http.StatusCreated,
			wantToken:      "signed.jwt.token",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name: "validation error - missing password",
			requestBody: Request{
				Name:  "Ana",
				Email: "ana@x.com",
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is a required field",
		},
		{
			name: "validation error - malformed email",
			requestBody: Request{
				Name:     "Ana",
				Email:    "not-an-email",
				Password: "secret1",
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
		},
		{
			name: "duplicate email",
			requestBody: Request{
				Name:     "Ana",
				Email:    "ana@x.com",
				Password: "secret1",
			},
			mockErr:        apperr.ErrEmailTaken,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			handler := New(logger, serviceMock)

			if tt.mockUser != nil || tt.mockErr != nil {
				serviceMock.On("Register", mock.Anything, "Ana", "ana@x.com", "secret1").
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

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(bodyBytes))
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
				assert.Equal(t, tt.wantToken, data["token"])

				user, ok := data["user"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "ana@x.com", user["email"])
				// Хеш пароля не должен попадать в ответ.
				_, leaked := user["password_hash"]
				assert.False(t, leaked)

				cookies := rec.Result().Cookies()
				if assert.Len(t, cookies, 1) {
					assert.Equal(t, middlewarectx.SessionCookieName, cookies[0].Name)
					assert.Equal(t, tt.wantToken, cookies[0].Value)
					assert.True(t, cookies[0].HttpOnly)
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
