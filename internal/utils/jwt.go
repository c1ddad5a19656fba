package utils

import (
	"errors"  // Error inspection
	"strconv" // Subject formatting
	"time"    // Time for token expiration

	"personal_finance/internal/domain" // Importing domain models

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Refresh token identifiers
)

// TokenIssuer signs and verifies access and refresh tokens with one HS256 secret
type TokenIssuer struct {
	Secret     []byte        // Signing key
	Issuer     string        // iss claim
	Audience   string        // aud claim
	AccessTTL  time.Duration // Access token lifetime
	RefreshTTL time.Duration // Refresh token lifetime
	now        func() time.Time
}

// NewTokenIssuer creates an issuer; lifetimes are given in minutes (access) and days (refresh)
func NewTokenIssuer(secret, issuer, audience string, accessMinutes, refreshDays int) *TokenIssuer {
	return &TokenIssuer{
		Secret:     []byte(secret),
		Issuer:     issuer,
		Audience:   audience,
		AccessTTL:  time.Duration(accessMinutes) * time.Minute,
		RefreshTTL: time.Duration(refreshDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// Claims carried by an access token
type Claims struct {
	UserID               uint   `json:"uid"`   // Custom claim for user ID
	Name                 string `json:"name"`  // Username
	Email                string `json:"email"` // Email
	Role                 string `json:"role"`  // Role at issue time
	jwt.RegisteredClaims        // Standard JWT claims
}

// RefreshClaims carried by a refresh token
type RefreshClaims struct {
	UserID               uint `json:"uid"` // Custom claim for user ID
	jwt.RegisteredClaims      // Standard JWT claims, ID holds a random jti
}

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`  // Bearer credential
	RefreshToken string    `json:"refreshToken"` // Credential for /auth/refresh
	ExpiresAt    time.Time `json:"expiresAt"`    // Access token expiry
}

// Issue creates an access and a refresh token for user
func (ti *TokenIssuer) Issue(user *domain.User) (*TokenPair, error) {
	now := ti.now()
	expires := now.Add(ti.AccessTTL)
	access := Claims{
		UserID:           user.ID,
		Name:             user.Username,
		Email:            user.Email,
		Role:             user.Role,
		RegisteredClaims: ti.registered(user.ID, now, expires, ""),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(ti.Secret)
	if err != nil {
		return nil, err
	}

	refresh := RefreshClaims{
		UserID:           user.ID,
		RegisteredClaims: ti.registered(user.ID, now, now.Add(ti.RefreshTTL), uuid.NewString()),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(ti.Secret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expires.UTC()}, nil
}

func (ti *TokenIssuer) registered(userID uint, now, expires time.Time, id string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    ti.Issuer,
		Audience:  jwt.ClaimStrings{ti.Audience},
		ExpiresAt: jwt.NewNumericDate(expires), // Token expiry
		IssuedAt:  jwt.NewNumericDate(now),     // Issued at current time
		ID:        id,
	}
}

// ParseAccess validates an access token; refresh tokens are rejected by their jti
func (ti *TokenIssuer) ParseAccess(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := ti.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.ID != "" {
		return nil, domain.TokenInvalid(errors.New("not an access token"))
	}
	return claims, nil
}

// ParseRefresh validates a refresh token; access tokens carry no jti
func (ti *TokenIssuer) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ti.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, domain.TokenInvalid(errors.New("not a refresh token"))
	}
	return claims, nil
}

// parse checks signature, algorithm, issuer, audience and lifetime
func (ti *TokenIssuer) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return ti.Secret, nil // Return the secret key for validation
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.Issuer),
		jwt.WithAudience(ti.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.TokenExpired(err)
	}
	if err != nil {
		return domain.TokenInvalid(err)
	}
	if !token.Valid {
		return domain.TokenInvalid(jwt.ErrSignatureInvalid)
	}
	return nil
}
