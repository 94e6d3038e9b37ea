package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"notesnap/internal/domain"
	"notesnap/internal/dto"
	"notesnap/internal/middleware"
	"notesnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthService implements service.AuthService with function fields.
type stubAuthService struct {
	service.AuthService
	googleOn     bool
	signUpFunc   func(ctx context.Context, email, password string) (*dto.TokenResponse, *domain.User, error)
	signInFunc   func(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	refreshFunc  func(ctx context.Context, token string) (*dto.TokenResponse, error)
	logoutClaims *dto.AuthClaims
}

func (s *stubAuthService) SignUp(ctx context.Context, email, password string) (*dto.TokenResponse, *domain.User, error) {
	return s.signUpFunc(ctx, email, password)
}

func (s *stubAuthService) SignIn(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	return s.signInFunc(ctx, email, password)
}

func (s *stubAuthService) RefreshToken(ctx context.Context, token string) (*dto.TokenResponse, error) {
	return s.refreshFunc(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, claims *dto.AuthClaims) error {
	s.logoutClaims = claims
	return nil
}

func (s *stubAuthService) GoogleEnabled() bool { return s.googleOn }

func (s *stubAuthService) GetGoogleLoginURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

var sampleTokens = &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}

func setupAuthApp(svc service.AuthService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	h := NewAuthHandler(svc)
	auth := app.Group("/api/auth")
	auth.Post("/signup", h.SignUp)
	auth.Post("/signin", h.SignIn)
	auth.Post("/refresh", h.RefreshToken)
	auth.Post("/logout", func(c *fiber.Ctx) error {
		c.Locals(middleware.ClaimsKey, &dto.AuthClaims{UserID: "owner1", TokenType: "access"})
		return c.Next()
	}, h.Logout)
	auth.Get("/google/login", h.GoogleLogin)
	auth.Get("/google/callback", h.GoogleCallback)
	return app
}

func postJSON(app *fiber.App, path, body string) (int, error) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func TestAuthHandler_SignUp(t *testing.T) {
	svc := &stubAuthService{
		signUpFunc: func(ctx context.Context, email, password string) (*dto.TokenResponse, *domain.User, error) {
			if email == "taken@example.com" {
				return nil, nil, domain.NewConflictError("an account with this email already exists")
			}
			return sampleTokens, &domain.User{ID: "u1", Email: email}, nil
		},
	}
	app := setupAuthApp(svc)

	status, err := postJSON(app, "/api/auth/signup", `{"email":"new@example.com","password":"password123"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, status)

	status, err = postJSON(app, "/api/auth/signup", `{"email":"taken@example.com","password":"password123"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, status)

	status, err = postJSON(app, "/api/auth/signup", `{"email":"new@example.com","password":"short"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthHandler_SignIn(t *testing.T) {
	svc := &stubAuthService{
		signInFunc: func(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
			if password != "password123" {
				return nil, domain.NewUnauthorizedError("invalid email or password")
			}
			return sampleTokens, nil
		},
	}
	app := setupAuthApp(svc)

	status, err := postJSON(app, "/api/auth/signin", `{"email":"me@example.com","password":"password123"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)

	status, err = postJSON(app, "/api/auth/signin", `{"email":"me@example.com","password":"nope"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, err = postJSON(app, "/api/auth/signin", `{"email":"me@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	svc := &stubAuthService{
		refreshFunc: func(ctx context.Context, token string) (*dto.TokenResponse, error) {
			if token != "good" {
				return nil, domain.NewUnauthorizedError("invalid refresh token")
			}
			return sampleTokens, nil
		},
	}
	app := setupAuthApp(svc)

	status, err := postJSON(app, "/api/auth/refresh", `{"refresh_token":"good"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)

	status, err = postJSON(app, "/api/auth/refresh", `{"refresh_token":"bad"}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, err = postJSON(app, "/api/auth/refresh", `{}`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &stubAuthService{}
	app := setupAuthApp(svc)

	status, err := postJSON(app, "/api/auth/logout", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, svc.logoutClaims)
	assert.Equal(t, "owner1", svc.logoutClaims.UserID)
}

func TestAuthHandler_Google(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		app := setupAuthApp(&stubAuthService{})
		resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/google/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("login sets state cookie", func(t *testing.T) {
		app := setupAuthApp(&stubAuthService{googleOn: true})
		resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/google/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)

		var state string
		for _, ck := range resp.Cookies() {
			if ck.Name == oauthStateCookieName {
				state = ck.Value
			}
		}
		require.NotEmpty(t, state)
		assert.True(t, strings.HasSuffix(resp.Header.Get("Location"), "state="+state))
	})

	t.Run("callback state mismatch", func(t *testing.T) {
		app := setupAuthApp(&stubAuthService{googleOn: true})
		req := httptest.NewRequest("GET", "/api/auth/google/callback?code=abc&state=forged", nil)
		req.Header.Set("Cookie", oauthStateCookieName+"=expected")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
