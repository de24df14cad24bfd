package config

import (
	"errors"
	"time"

	"backend-antrian-klinik/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var errEmptySecret = errors.New("JWT_SECRET kosong")

type JWTClaims struct {
	UserID     int64  `json:"user_id"`
	Nama       string `json:"nama"`
	Role       string `json:"role"`
	ProviderID *int64 `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

func (c JWTClaims) Principal() models.Principal {
	return models.Principal{
		UserID:     c.UserID,
		Nama:       c.Nama,
		Role:       c.Role,
		ProviderID: c.ProviderID,
	}
}

func GenerateToken(secret string, p models.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}

	now := time.Now()
	claims := JWTClaims{
		UserID:     p.UserID,
		Nama:       p.Nama,
		Role:       p.Role,
		ProviderID: p.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken hanya menerima HS256 dengan secret tidak kosong dan exp wajib ada
func ValidateToken(secret, tokenString string) (*JWTClaims, error) {
	if secret == "" {
		return nil, errEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
