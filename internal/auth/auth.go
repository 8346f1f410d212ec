package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jvaldiviezo/contasys/internal"
)

// Account is the authenticated user as seen by the auth domain.
type Account struct {
	ID           int64
	Username     string
	FullName     string
	Role         string
	PasswordHash string
	IsActive     bool
}

// AuthTokens is the pair returned to clients on login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims. Role travels inside the token so
// the middleware can build an Actor without a second lookup on every request.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, username, role string) (string, error)
	GenerateRefreshToken(userID, username, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ServiceAPI is what the HTTP handler needs from the auth service.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ActorForClaims(claims *Claims) (internal.Actor, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
	ErrUserInactive       = internal.ErrUserInactive
)
