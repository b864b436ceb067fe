package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanthewiz/serr"
)

// JWT configuration constants
const (
	// TokenExpirationHours defines how long room tokens remain valid (30 days).
	// A wall-mounted dashboard should not need to rejoin every week.
	TokenExpirationHours = 24 * 30

	// TokenIssuer identifies the application that issued the token
	TokenIssuer = "schedulehub"

	// MinSecretLength is the minimum acceptable length for the JWT secret
	MinSecretLength = 32

	// DevelopmentSecret is used when no secret is configured
	DevelopmentSecret = "development-only-secret-do-not-use-in-production"
)

// RoomClaims extends JWT standard claims with the room membership.
// Holding a valid token is what makes a request "in" a household.
type RoomClaims struct {
	jwt.RegisteredClaims
	RoomID string `json:"room_id"`
	Member string `json:"member"`
}

// TokenSigner issues and validates room tokens with one HMAC secret
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a signer for secret; an empty secret falls back
// to the development secret
func NewTokenSigner(secret string) (*TokenSigner, error) {
	if secret == "" {
		secret = DevelopmentSecret
	}
	if len(secret) < MinSecretLength {
		return nil, serr.New("JWT secret must be at least 32 characters")
	}
	return &TokenSigner{secret: []byte(secret)}, nil
}

// GenerateToken creates a signed token granting member access to room
func (ts *TokenSigner) GenerateToken(room *Room, member string) (string, error) {
	if room == nil || room.ID == "" {
		return "", serr.New("cannot issue a token without a room")
	}

	now := time.Now()
	claims := RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   member,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * TokenExpirationHours)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		RoomID: room.ID,
		Member: member,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ts.secret)
	if err != nil {
		return "", serr.Wrap(err, "failed to sign token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token string.
// Returns the claims if valid, or an error if the token is
// expired, malformed, or has an invalid signature.
func (ts *TokenSigner) ValidateToken(tokenString string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, serr.New("unexpected signing method")
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, serr.Wrap(err, "failed to parse token")
	}

	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, serr.New("invalid token claims")
	}
	if claims.RoomID == "" {
		return nil, serr.New("token carries no room")
	}
	return claims, nil
}
