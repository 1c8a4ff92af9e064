package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Identity holds the optional authenticated visitor fields attached to a
// tracking call. All fields are empty for anonymous sessions.
type Identity struct {
	UserID string
	Email  string
	Phone  string
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IdentityFromClaims extracts the visitor identity from bearer token claims.
func IdentityFromClaims(claims jwt.MapClaims) Identity {
	var identity Identity
	if v, ok := claims["userId"].(string); ok {
		identity.UserID = v
	}
	if v, ok := claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := claims["phone"].(string); ok {
		identity.Phone = v
	}
	return identity
}

// GenerateSysOpToken creates a short-lived JWT for the ops dashboard. Each
// token carries a random jti so two logins in the same second are distinct.
func GenerateSysOpToken(jwtSecret string, ttl time.Duration) (string, error) {
	jti, err := GenerateSecureToken(16)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"role": "sysop",
		"jti":  jti,
		"iat":  time.Now().UTC().Unix(),
		"exp":  time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
