package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// PurposePasswordReset marks single-purpose reset tokens. Session tokens
// carry no purpose.
const PurposePasswordReset = "password-reset"

const issuer = "flow-core"

type Claims struct {
	UserID  uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Role    string    `json:"type,omitempty"`
	Purpose string    `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret      []byte
	expiry      time.Duration
	resetExpiry time.Duration
}

func NewJWTService(secret string, expiry, resetExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expiry:      expiry,
		resetExpiry: resetExpiry,
	}
}

// GenerateToken issues a session token.
func (s *JWTService) GenerateToken(userID uuid.UUID, email, role string) (string, error) {
	return s.sign(Claims{UserID: userID, Email: email, Role: role}, s.expiry)
}

// GenerateResetToken issues a password-reset token with its own expiry.
func (s *JWTService) GenerateResetToken(userID uuid.UUID, email string) (string, error) {
	return s.sign(Claims{UserID: userID, Email: email, Purpose: PurposePasswordReset}, s.resetExpiry)
}

func (s *JWTService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   claims.UserID.String(),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies a session token. Reset tokens are refused here.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// ValidateResetToken verifies signature, expiry and the reset purpose.
func (s *JWTService) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// Older tokens may carry only sub.
	if claims.UserID == uuid.Nil {
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.UserID = id
	}
	return claims, nil
}
