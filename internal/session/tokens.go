package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and parses the HS256 session tokens handed out after sign-in
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the user
func (i *Issuer) Issue(userID, email string) (string, *Session, error) {
	now := i.now()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claimsToSession(claims), nil
}

// Parse verifies the token signature and expiry
func (i *Issuer) Parse(tokenString string) (*Session, error) {
	claims := &models.JwtCustomClaims{}
	parser := jwt.Parser{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(i.now()) {
		return nil, ErrInvalidToken
	}
	return claimsToSession(claims), nil
}

func claimsToSession(c *models.JwtCustomClaims) *Session {
	s := &Session{UserID: c.UserID, Email: c.Email, TokenID: c.ID}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
