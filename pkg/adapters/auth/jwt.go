package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
	Issuer    string
}

// JWTManager issues HS256 access tokens whose subject is the username.
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

func NewJWTManager(config JWTConfig) *JWTManager {
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	return &JWTManager{config: config, now: time.Now}
}

func (m *JWTManager) Issue(username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.config.Issuer,
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Verify returns the username the token was issued for.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

var _ ports.TokenIssuer = (*JWTManager)(nil)
