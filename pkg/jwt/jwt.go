package jwt

import (
	"errors"
	"time"

	"nutrition-intake/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the trusted part of an intake form session: which surface
// the user chose and which identifier has been confirmed by a load.
type Claims struct {
	SessionID       string `json:"sid"`
	Mode            string `json:"mode"`
	RecoveryMode    bool   `json:"recovery,omitempty"`
	ConfirmedUserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	config config.SessionConfig
}

func NewJWTService(cfg config.SessionConfig) *JWTService {
	return &JWTService{config: cfg}
}

// GenerateSessionToken signs the session claims with a fresh expiry.
func (s *JWTService) GenerateSessionToken(sessionID, mode string, recoveryMode bool, confirmedUserID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID:       sessionID,
		Mode:            mode,
		RecoveryMode:    recoveryMode,
		ConfirmedUserID: confirmedUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.config.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (s *JWTService) GetExpiry() time.Duration {
	return s.config.Expiry
}
