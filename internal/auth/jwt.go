package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// ErrTokenInvalid covers malformed, expired and wrong-kind tokens.
var ErrTokenInvalid = errors.New("invalid token")

// TokenPair holds the signed access and refresh tokens issued on login
// and on each refresh rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims is the JWT payload: the registered claims plus the user's role
// and a kind separating access from refresh tokens, so a refresh token
// can never authenticate an API request.
type Claims struct {
	Role string `json:"role"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Issue signs an access/refresh token pair for a user.
func Issue(userID, role, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	access, err := sign(userID, role, issuer, key, tokenKindAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := sign(userID, role, issuer, key, tokenKindRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func sign(userID, role, issuer, key, kind string, now, exp time.Time) (string, error) {
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates an access token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	return parse(tokenStr, key, issuer, tokenKindAccess)
}

// ParseRefresh validates a refresh token and returns its claims.
func ParseRefresh(tokenStr, key, issuer string) (Claims, error) {
	return parse(tokenStr, key, issuer, tokenKindRefresh)
}

func parse(tokenStr, key, issuer, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return Claims{}, ErrTokenInvalid
	}
	return *claims, nil
}
