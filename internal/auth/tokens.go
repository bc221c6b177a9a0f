package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload of access and refresh tokens.
type Claims struct {
	Role rbac.Role `json:"role"`
	Type string    `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// IssueAccessToken signs a short-lived access token.
func (t *TokenIssuer) IssueAccessToken(userID int64, role rbac.Role) (string, error) {
	return t.sign(userID, role, tokenTypeAccess, t.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token with a unique id.
func (t *TokenIssuer) IssueRefreshToken(userID int64, role rbac.Role) (string, error) {
	return t.sign(userID, role, tokenTypeRefresh, t.refreshTTL)
}

// IssuePair signs both tokens.
func (t *TokenIssuer) IssuePair(userID int64, role rbac.Role) (TokenPair, error) {
	access, err := t.IssueAccessToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.IssueRefreshToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccessToken verifies an access token.
func (t *TokenIssuer) ParseAccessToken(raw string) (Claims, error) {
	return t.parse(raw, tokenTypeAccess)
}

// ParseRefreshToken verifies the signature, expiry and type of a refresh token.
// Comparing against the stored value is the caller's job.
func (t *TokenIssuer) ParseRefreshToken(raw string) (Claims, error) {
	return t.parse(raw, tokenTypeRefresh)
}

func (t *TokenIssuer) sign(userID int64, role rbac.Role, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(raw, typ string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: invalid %s token", shared.ErrUnauthorized, typ)
	}
	if claims.Type != typ {
		return Claims{}, fmt.Errorf("%w: invalid %s token", shared.ErrUnauthorized, typ)
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, errors.Join(shared.ErrUnauthorized, err)
	}
	return claims, nil
}

// GenerateResetToken returns a random uuid v4 token and its expiry.
func GenerateResetToken(now time.Time, ttl time.Duration) (string, time.Time) {
	return uuid.NewString(), now.Add(ttl)
}
