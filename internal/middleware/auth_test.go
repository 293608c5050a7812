package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenParser struct {
	mock.Mock
}

func (m *MockTokenParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casdoorsdk.Claims), args.Error(1)
}

func newTestRouter(parser TokenParser, admins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuth(parser, admins, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	api := r.Group("/api", auth.Authenticate())
	api.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func claimsFor(id, email string, admin bool) *casdoorsdk.Claims {
	return &casdoorsdk.Claims{User: casdoorsdk.User{Id: id, Name: "learner", Email: email, IsAdmin: admin}}
}

func doRequest(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	parser := &MockTokenParser{}
	parser.On("ParseJwtToken", "good").Return(claimsFor("u1", "u1@example.com", false), nil)
	parser.On("ParseJwtToken", "bad").Return(nil, errors.New("signature is invalid"))
	r := newTestRouter(parser, nil)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, "/api/me", tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := doRequest(r, "/api/me", "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"learner"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	parser := &MockTokenParser{}
	parser.On("ParseJwtToken", "learner").Return(claimsFor("u1", "u1@example.com", false), nil)
	parser.On("ParseJwtToken", "casdoor-admin").Return(claimsFor("u2", "u2@example.com", true), nil)
	parser.On("ParseJwtToken", "listed-admin").Return(claimsFor("u3", "Lead@Example.com", false), nil)
	r := newTestRouter(parser, []string{"lead@example.com"})

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/api/admin", "Bearer learner").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/api/admin", "Bearer casdoor-admin").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/api/admin", "Bearer listed-admin").Code)
}

func TestAuthenticateRequiresSubject(t *testing.T) {
	parser := &MockTokenParser{}
	parser.On("ParseJwtToken", "anon").Return(claimsFor("", "", false), nil)
	r := newTestRouter(parser, nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/api/me", "Bearer anon").Code)
}
