package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"notesnap/internal/cache"
	"notesnap/internal/config"
	"notesnap/internal/domain"
	"notesnap/internal/dto"
	"notesnap/internal/logger"
	"notesnap/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"

	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrGoogleLoginDisabled   = errors.New("google sign-in is not configured")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*dto.TokenResponse, *domain.User, error)
	SignIn(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	GoogleEnabled() bool
	GetGoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*dto.TokenResponse, *domain.User, error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *dto.AuthClaims) error
}

type authServiceImpl struct {
	userRepo     domain.UserRepository
	cache        domain.Cache
	oauth2Config *oauth2.Config
	jwtConfig    config.JWTConfig
	googleOn     bool
}

// NewAuthService creates a new instance of AuthService. cache holds revoked
// token ids; without it logout cannot be enforced server side.
func NewAuthService(userRepo domain.UserRepository, c domain.Cache, appConfig *config.Config) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}

	return &authServiceImpl{
		userRepo: userRepo,
		cache:    c,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.GoogleOAuth.ClientID,
			ClientSecret: appConfig.GoogleOAuth.ClientSecret,
			RedirectURL:  appConfig.GoogleOAuth.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		jwtConfig: appConfig.JWT,
		googleOn:  appConfig.GoogleOAuth.Enabled(),
	}, nil
}

func (s *authServiceImpl) SignUp(ctx context.Context, email, password string) (*dto.TokenResponse, *domain.User, error) {
	user := domain.NewUser(email)
	if !strings.Contains(user.Email, "@") {
		return nil, nil, domain.NewInvalidInputError("a valid email address is required")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, nil, domain.NewInvalidInputError(fmt.Sprintf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to look up account", err)
	}
	if existing != nil {
		return nil, nil, domain.NewConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to hash password", err)
	}
	user.ID = util.NewULID()
	user.PasswordHash = string(hash)

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, nil, wrapRepoErr("Failed to create account", err)
	}
	logger.Get().Info("New user signed up", zap.String("userID", user.ID))

	tokens, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *authServiceImpl) SignIn(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Get().Info("Rejected sign-in with wrong password", zap.String("userID", user.ID))
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	return s.issueTokens(user.ID)
}

func (s *authServiceImpl) GoogleEnabled() bool {
	return s.googleOn
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state)
}

// HandleGoogleCallback links the Google account to the user with the same
// verified email, or creates a new user.
func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*dto.TokenResponse, *domain.User, error) {
	appLogger := logger.Get()
	if !s.googleOn {
		return nil, nil, ErrGoogleLoginDisabled
	}
	if receivedState == "" || receivedState != expectedState {
		return nil, nil, ErrInvalidAuthState
	}

	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err)
	}

	resp, err := s.oauth2Config.Client(ctx, googleToken).Get(googleUserInfoURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	var userInfo dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if userInfo.ID == "" || userInfo.Email == "" || !userInfo.VerifiedEmail {
		return nil, nil, domain.NewUnauthorizedError("google account has no verified email")
	}

	user, err := s.linkGoogleUser(ctx, userInfo)
	if err != nil {
		return nil, nil, err
	}
	appLogger.Info("User logged in via Google OAuth", zap.String("userID", user.ID))

	tokens, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *authServiceImpl) linkGoogleUser(ctx context.Context, info dto.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.GetUserByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user != nil {
		return user, nil
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	user, err = s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user != nil {
		user.GoogleID = info.ID
		if err := s.userRepo.UpdateUser(ctx, user); err != nil {
			return nil, wrapRepoErr("Failed to link google account", err)
		}
		return user, nil
	}

	user = domain.NewUser(email)
	user.ID = util.NewULID()
	user.GoogleID = info.ID
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, wrapRepoErr("Failed to create account", err)
	}
	return user, nil
}

func (s *authServiceImpl) issueTokens(userID string) (*dto.TokenResponse, error) {
	accessToken, err := s.createJWT(userID, s.jwtConfig.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return nil, domain.NewInternalError("Failed to create access token", err)
	}
	refreshToken, err := s.createJWT(userID, s.jwtConfig.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return nil, domain.NewInternalError("Failed to create refresh token", err)
	}
	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtConfig.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *authServiceImpl) createJWT(userID string, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        util.NewULID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.SecretKey))
}

func tokenSnippet(token string) string {
	return token[:min(len(token), 20)] + "..."
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	appLogger := logger.Get()
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appLogger.Debug("JWT token expired", zap.String("token_snippet", tokenSnippet(tokenString)))
		} else {
			appLogger.Warn("JWT validation failed", zap.Error(err), zap.String("token_snippet", tokenSnippet(tokenString)))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidJWTToken
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		appLogger.Warn("Revocation check failed", zap.Error(err))
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RefreshToken rotates the pair; the presented refresh token is revoked.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (*dto.TokenResponse, error) {
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, domain.NewUnauthorizedError("not a refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user == nil {
		return nil, domain.NewUnauthorizedError("account no longer exists")
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, domain.NewInternalError("Failed to rotate refresh token", err)
	}
	logger.Get().Info("JWT token refreshed", zap.String("userID", user.ID))
	return s.issueTokens(user.ID)
}

func (s *authServiceImpl) Logout(ctx context.Context, claims *dto.AuthClaims) error {
	if claims == nil {
		return domain.NewUnauthorizedError("not signed in")
	}
	if err := s.revoke(ctx, claims); err != nil {
		return domain.NewInternalError("Failed to revoke token", err)
	}
	logger.Get().Info("User logged out", zap.String("userID", claims.UserID))
	return nil
}

// revoke remembers the token id until the token would have expired anyway.
func (s *authServiceImpl) revoke(ctx context.Context, claims *dto.AuthClaims) error {
	if s.cache == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, cache.RevokedTokenKey(claims.ID), claims.UserID, ttl)
}

func (s *authServiceImpl) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.cache == nil || tokenID == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, cache.RevokedTokenKey(tokenID))
}
