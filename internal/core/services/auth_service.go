package services

import (
	"errors"
	"fmt"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// tokenClaims mirrors what the external identity provider signs. Subject is
// the viewer id.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserName string  `json:"username"`
	PhotoKey *string `json:"photo_key,omitempty"`
}

type authService struct {
	secret []byte
}

func NewAuthService(secret string) ports.AuthService {
	return &authService{secret: []byte(secret)}
}

func (s *authService) ValidateToken(token string) (*ports.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &ports.Claims{
		ViewerID: domain.ViewerID(claims.Subject),
		UserName: claims.UserName,
		PhotoKey: claims.PhotoKey,
	}, nil
}
