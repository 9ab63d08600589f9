package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "pyquest"

// claims is the payload of a session token.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// issueToken signs a session token for u valid for ttl from now and sets
// u.ExpiresAt accordingly.
func (s *Service) issueToken(u *User) (string, error) {
	now := s.now()
	u.ExpiresAt = now.Add(s.ttl).Truncate(time.Second)
	c := claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// parseToken verifies a session token and returns the user it names.
func (s *Service) parseToken(token string) (*User, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var c claims
	_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, fmt.Errorf("invalid session token: %w", err)
	case c.Subject == "":
		return nil, errors.New("invalid session token: missing subject")
	}
	return &User{ID: c.Subject, Email: c.Email, ExpiresAt: c.ExpiresAt.Time}, nil
}
