package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the access/refresh pair. Access and
// refresh tokens use distinct secrets; refresh validity additionally
// depends on the copy stored on the user record (see VerifyRefresh).
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (tm *TokenManager) IssuePair(userID, username, email string) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTTL)),
		},
	})
	accessStr, err := access.SignedString(tm.accessSecret)
	if err != nil {
		return nil, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshTTL)),
		},
	})
	refreshStr, err := refresh.SignedString(tm.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

// VerifyAccess checks signature and expiry and returns the claims.
func (tm *TokenManager) VerifyAccess(tokenStr string) (*Claims, error) {
	return tm.verify(tokenStr, tm.accessSecret)
}

// ParseRefresh checks only signature and expiry. It exists so the caller
// can learn which user the token claims to belong to before running the
// full VerifyRefresh check against that user's stored copy.
func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	return tm.verify(tokenStr, tm.refreshSecret)
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// then requires the presented token to equal the stored copy. An empty
// stored value means the user already logged out, so the token is dead even
// if its signature is still good.
func (tm *TokenManager) VerifyRefresh(tokenStr, stored string) (*Claims, error) {
	claims, err := tm.verify(tokenStr, tm.refreshSecret)
	if err != nil {
		return nil, err
	}
	if stored == "" || tokenStr != stored {
		return nil, Unauthorized("refresh token is expired or already used")
	}
	return claims, nil
}

func (tm *TokenManager) verify(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, Unauthorized("invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, Unauthorized("invalid token claims")
	}
	return claims, nil
}
