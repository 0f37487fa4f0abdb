package dto

import (
	"strings"
	"time"
	"tourbook/infras/jwt"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// NormalizedEmail matches the lower-cased form accounts are stored with.
func (r LoginRequest) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LastLogin is the column set written after a successful login.
type LastLogin struct {
	At time.Time `db:"last_login"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func NewTokens(pair *jwt.TokenPair) Tokens {
	if pair == nil {
		return Tokens{}
	}

	return Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}

type LoginResponse struct {
	Tokens
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type RefreshTokenResponse struct {
	Tokens
}
