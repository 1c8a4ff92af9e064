package services

import (
	"strings"

	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/security"
	"github.com/multikonnect/cartwatch/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles sysop dashboard authentication and visitor bearer
// token validation.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new auth service
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// LoginSysOp verifies the sysop password against the configured bcrypt hash
// and issues a short-lived JWT on success.
func (s *AuthService) LoginSysOp(password string) (string, bool) {
	if config.SysOpPasswordHash == "" || config.JWTSecret == "" {
		s.logger.System().Warn("SysOp login attempted without SYSOP_PASSWORD_HASH or JWT_SECRET configured")
		return "", false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.SysOpPasswordHash), []byte(password)); err != nil {
		s.logger.System().Warn("SysOp login failed")
		return "", false
	}

	token, err := security.GenerateSysOpToken(config.JWTSecret, config.SysOpTokenTTL)
	if err != nil {
		s.logger.System().Error("Failed to generate sysop token", "error", err.Error())
		return "", false
	}

	s.logger.System().Info("SysOp login succeeded")
	return token, true
}

// ValidateSysOpToken checks a bearer token for the sysop role.
func (s *AuthService) ValidateSysOpToken(authHeader string) bool {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader || config.JWTSecret == "" {
		return false
	}

	claims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "sysop"
}

// IdentityFromAuthHeader extracts the visitor identity from an optional
// bearer token. Anonymous requests and invalid tokens both yield an empty
// identity: tracking is best-effort and never rejects on auth grounds.
func (s *AuthService) IdentityFromAuthHeader(authHeader string) security.Identity {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader || config.JWTSecret == "" {
		return security.Identity{}
	}

	claims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		s.logger.Tracking().Debug("Ignoring invalid bearer token on tracking call", "error", err.Error())
		return security.Identity{}
	}

	return security.IdentityFromClaims(claims)
}
