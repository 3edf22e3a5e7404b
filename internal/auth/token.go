package auth

import (
	"fmt"
	"time"

	"fest-ticketing/internal/model"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenType = "bearer"

type claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(userID uuid.UUID, isAdmin bool) (string, time.Time, error)
	Verify(token string) (model.Identity, error)
}

type jwtManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager signs HS256 tokens with secret, valid for ttl.
func NewJWTManager(secret string, ttl time.Duration) TokenManager {
	return &jwtManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *jwtManager) Issue(userID uuid.UUID, isAdmin bool) (string, time.Time, error) {
	now := m.now().UTC()
	exp := now.Add(m.ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Admin: isAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *jwtManager) Verify(token string) (model.Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, apperrors.ErrUnauthenticated
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.Identity{}, apperrors.ErrUnauthenticated
	}
	return model.Identity{UserID: userID, IsAdmin: c.Admin}, nil
}
