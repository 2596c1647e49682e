package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const pickupPurpose = "pickup"

type PickupClaims struct {
	LoanID  int64  `json:"loan_id"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// PickupTokenSigner issues and verifies capability tokens that bind one
// loan id to one loan code. They are signed independently of access tokens.
type PickupTokenSigner interface {
	Sign(loanID int64, code string) (token string, expiresAt time.Time, err error)
	Verify(token string) (loanID int64, code string, err error)
}

type pickupTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewPickupTokenSigner(secret string, ttl time.Duration) PickupTokenSigner {
	return &pickupTokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *pickupTokenSigner) Sign(loanID int64, code string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := PickupClaims{
		LoanID:  loanID,
		Code:    code,
		Purpose: pickupPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign pickup token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *pickupTokenSigner) Verify(tokenString string) (int64, string, error) {
	claims := &PickupClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return 0, "", ErrTokenInvalid
	}
	if claims.Purpose != pickupPurpose || claims.LoanID <= 0 || claims.Code == "" {
		return 0, "", ErrTokenInvalid
	}
	return claims.LoanID, claims.Code, nil
}
