package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

// Claims identify the caller. Role is carried for callers that enforce
// permissions; the ledger itself never checks it.
type Claims struct {
	MemberID string
	Role     domain.Role
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const issuer = "chama-ledger"

func GenerateToken(memberID string, role domain.Role, secret string, expiry time.Duration) (string, error) {
	if memberID == "" {
		return "", errors.New("GenerateToken: member id required")
	}
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   memberID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("ValidateToken: missing subject")
	}

	role := domain.Role(tc.Role)
	if !role.IsValid() {
		role = domain.RoleMember
	}
	return &Claims{MemberID: tc.Subject, Role: role}, nil
}
