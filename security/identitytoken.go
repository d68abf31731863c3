package security

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "axiapac"

var ErrInvalidToken = errors.New("invalid or expired token")

type EmployeeIdentity struct {
	EmployeeNumber string
	UserName       string
	Provider       string
	Email          string
	DeviceID       string
}

// IdentityClaims includes Identity and standard JWT claims
type Identity struct {
	EmployeeNumber string `json:"nameid"`
	UniqueName     string `json:"unique_name"`
	Email          string `json:"email,omitempty"`
	SID            string `json:"sid"`
	Provider       string `json:"provider"`
}

type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

func DecodeSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func CreateIdentityToken(identity *EmployeeIdentity, base64Secret string, expiresInSeconds int64) (string, error) {
	secretBytes, err := DecodeSecret(base64Secret)
	if err != nil {
		return "", err
	}
	deviceID := identity.DeviceID
	if deviceID == "" {
		deviceID = "punchclock-agent"
	}
	now := time.Now()
	claims := IdentityClaims{
		Identity: Identity{
			EmployeeNumber: identity.EmployeeNumber,
			UniqueName:     identity.UserName,
			Email:          identity.Email,
			SID:            deviceID,
			Provider:       identity.Provider,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   identity.EmployeeNumber,
			Audience:  []string{"*.axiapac.net.au"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresInSeconds) * time.Second)),
		},
	}

	// HS256, symmetric key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secretBytes)
}

// ParseIdentityToken verifies an HMAC-signed token and returns its claims.
func ParseIdentityToken(tokenStr string, secret []byte) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.EmployeeNumber == "" {
		claims.EmployeeNumber = claims.Subject
	}
	if claims.EmployeeNumber == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
