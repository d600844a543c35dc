package token

import (
	"errors"
	"fmt"
	"time"

	"slotboard/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by an access token. Role rides along so authorization never
// needs a database round-trip.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Mint issues a signed HS256 token for the user.
func (m *Manager) Mint(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		Username: user.Name,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns the caller it
// identifies. Restricting the accepted methods blocks alg-substitution
// tokens signed with "none" or an asymmetric scheme.
func (m *Manager) Verify(tokenString string) (*model.Caller, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	role := model.Role(claims.Role)
	if claims.Subject == "" || claims.Username == "" || !role.Valid() {
		return nil, errors.New("token claims incomplete")
	}

	return &model.Caller{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     role,
	}, nil
}
